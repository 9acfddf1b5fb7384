package api

// RunConfig describes one summarization run: where the dimensions and the
// leaf values come from, the budget, and where results go.
type RunConfig struct {
	// Hierarchies lists one "parent;child" file per dimension, in dimension order.
	Hierarchies []string `hcl:"hierarchies" yaml:"hierarchies" json:"hierarchies" validate:"required,min=1,dive,required"`
	// Values is the leaf value source: text ("name;value"), .json, or .db/.sqlite.
	Values string `hcl:"values" yaml:"values" json:"values" validate:"required"`
	// ValuesSelector is a JSONPath selecting {name, value} records in a JSON source.
	ValuesSelector string `hcl:"values_selector,optional" yaml:"values_selector" json:"values_selector,omitempty"`
	// ValuesTable is the table read from a SQLite source.
	ValuesTable string `hcl:"values_table,optional" yaml:"values_table" json:"values_table,omitempty" validate:"omitempty,printascii"`

	// Budget is K, the maximum number of representatives.
	Budget int `hcl:"budget,optional" yaml:"budget" json:"budget" validate:"gte=1"`
	// TakeLog summarizes log-transformed values (all values must be positive).
	TakeLog bool `hcl:"take_log,optional" yaml:"take_log" json:"take_log"`
	// LevelByLevel keeps only two lattice levels of tables alive at a time.
	LevelByLevel bool `hcl:"level_by_level,optional" yaml:"level_by_level" json:"level_by_level"`
	// KeepPrecision disables rounding text values up to one decimal place.
	KeepPrecision bool `hcl:"keep_precision,optional" yaml:"keep_precision" json:"keep_precision"`

	// ErrorsOut receives the per-leaf error stream ("e1,e2,...,").
	ErrorsOut string `hcl:"errors_out,optional" yaml:"errors_out" json:"errors_out,omitempty"`
	// ReportOut receives the JSON run report.
	ReportOut string `hcl:"report_out,optional" yaml:"report_out" json:"report_out,omitempty"`
	// Ledger is a SQLite database that records every run.
	Ledger string `hcl:"ledger,optional" yaml:"ledger" json:"ledger,omitempty"`
}

// Report is the outcome of one run.
type Report struct {
	RunID           string           `json:"run_id"`
	Budget          int              `json:"budget"`
	Mode            string           `json:"mode"`
	TakeLog         bool             `json:"take_log"`
	Size            int              `json:"size"`
	Weight          float64          `json:"weight"`
	Representatives []Representative `json:"representatives"`
	LatticeNodes    int              `json:"lattice_nodes"`
	Leaves          int              `json:"leaves"`
	AverageError    float64          `json:"average_error"`
	WorstError      float64          `json:"worst_error"`
	ElapsedMS       int64            `json:"elapsed_ms"`
}

// Representative is one chosen lattice node in a Report.
type Representative struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Leaves int     `json:"leaves"`
	Share  float64 `json:"share"`
}
