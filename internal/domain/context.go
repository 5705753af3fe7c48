package domain

// Well-known PipelineContext keys holding reference-data locations.
const (
	ContextCategories = "categories"
	ContextTypeCode   = "typecode"
)

// PipelineContext is the string-keyed map threaded through every command of a run.
type PipelineContext map[string]string

func (c PipelineContext) Clone() PipelineContext {
	if c == nil {
		return PipelineContext{}
	}
	out := make(PipelineContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge applies updates last-writer-wins and returns the receiver
// (allocating one when c is nil).
func (c PipelineContext) Merge(updates PipelineContext) PipelineContext {
	if c == nil {
		c = PipelineContext{}
	}
	for k, v := range updates {
		c[k] = v
	}
	return c
}
