package hcl_adapter

// fileRoot decodes every top-level block a file may contain.
type fileRoot struct {
	Datasets    []*datasetBlock    `hcl:"dataset,block"`
	Experiments []*experimentBlock `hcl:"experiment,block"`
	Runs        []*runBlock        `hcl:"run,block"`
}

// datasetBlock is `dataset "<name>" { ... }`.
type datasetBlock struct {
	Name       string    `hcl:"name,label"`
	Src        string    `hcl:"src"`
	NumClasses int       `hcl:"nr_classes"`
	Mean       []float64 `hcl:"mean,optional"`
	Std        []float64 `hcl:"std,optional"`
}

type experimentBlock struct {
	Dataset    *string  `hcl:"dataset,optional"`
	Nets       []string `hcl:"nets,optional"`
	HardLabels *bool    `hcl:"hard_labels,optional"`
	Device     *string  `hcl:"device,optional"`
	Exp        *int     `hcl:"exp,optional"`
	Steps      []string `hcl:"steps,optional"`
	DataDir    *string  `hcl:"data_dir,optional"`
	Workers    *int     `hcl:"workers,optional"`
	NotifyURL  *string  `hcl:"notify_url,optional"`
}

type runBlock struct {
	Seed         *uint64   `hcl:"seed,optional"`
	TrFrac       *float64  `hcl:"tr_frac,optional"`
	Exts         []string  `hcl:"exts,optional"`
	TrPercs      []float64 `hcl:"tr_percs,optional"`
	Algs         []string  `hcl:"algs,optional"`
	Epochs       *int      `hcl:"epochs,optional"`
	BatchSizeTr  *int      `hcl:"batch_size_tr,optional"`
	BatchSizeFE  *int      `hcl:"batch_size_fe,optional"`
	SoftLabels   *bool     `hcl:"soft_labels,optional"`
	LearningRate *float64  `hcl:"learning_rate,optional"`
	GTG          *gtgBlock `hcl:"gtg,block"`
}

type gtgBlock struct {
	K         *int     `hcl:"k,optional"`
	Sigma     *string  `hcl:"sigma,optional"`
	Tolerance *float64 `hcl:"tolerance,optional"`
	MaxIter   *int     `hcl:"max_iter,optional"`
}
