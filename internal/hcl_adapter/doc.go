// Package hcl_adapter loads HCL configuration files into config.Model.
//
// Files may declare any number of `dataset "<name>"` blocks and at most one
// `experiment` and one `run` block in total. Expressions can read the process
// environment through `env` (for example `src = env.CALTECH_DIR`) and call
// lower, upper, format, concat, min and max.
package hcl_adapter
