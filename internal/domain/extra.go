package domain

// Recognized RunExtra keys, as they appear in the stored document.
const (
	ExtraQualityIndex   = "quality_index"
	ExtraCalculatorName = "calculator_name"
	ExtraQualityMetrics = "quality_metrics"
	ExtraOutputFilePath = "output_file_path"
)

// RunExtra holds the cross-cutting metrics commands contribute to a run.
// The key set is closed; commands report through Outcome telemetry updates.
type RunExtra struct {
	QualityIndex   *float64        `json:"quality_index,omitempty"`
	CalculatorName string          `json:"calculator_name,omitempty"`
	QualityMetrics *QualityMetrics `json:"quality_metrics,omitempty"`
	OutputFilePath string          `json:"output_file_path,omitempty"`
}

// Merge applies the keys set in update, last writer wins.
// Zero values in update leave the receiver untouched.
func (e *RunExtra) Merge(update *RunExtra) {
	if e == nil || update == nil {
		return
	}
	if update.QualityIndex != nil {
		v := *update.QualityIndex
		e.QualityIndex = &v
	}
	if update.CalculatorName != "" {
		e.CalculatorName = update.CalculatorName
	}
	if update.QualityMetrics != nil {
		m := update.QualityMetrics.Clone()
		e.QualityMetrics = &m
	}
	if update.OutputFilePath != "" {
		e.OutputFilePath = update.OutputFilePath
	}
}

// Keys lists the recognized keys that are set, in declaration order.
func (e RunExtra) Keys() []string {
	keys := make([]string, 0, 4)
	if e.QualityIndex != nil {
		keys = append(keys, ExtraQualityIndex)
	}
	if e.CalculatorName != "" {
		keys = append(keys, ExtraCalculatorName)
	}
	if e.QualityMetrics != nil {
		keys = append(keys, ExtraQualityMetrics)
	}
	if e.OutputFilePath != "" {
		keys = append(keys, ExtraOutputFilePath)
	}
	return keys
}

func (e RunExtra) Clone() RunExtra {
	out := RunExtra{
		CalculatorName: e.CalculatorName,
		OutputFilePath: e.OutputFilePath,
	}
	if e.QualityIndex != nil {
		v := *e.QualityIndex
		out.QualityIndex = &v
	}
	if e.QualityMetrics != nil {
		m := e.QualityMetrics.Clone()
		out.QualityMetrics = &m
	}
	return out
}

// QualityMetrics is the result of one quality scoring call. All scores are in [0, 1].
type QualityMetrics struct {
	Completeness        float64            `json:"completeness"`
	Confidence          float64            `json:"confidence"`
	Consistency         float64            `json:"consistency"`
	OverallQualityIndex float64            `json:"overall_quality_index"`
	Dimensions          map[string]float64 `json:"dimensions,omitempty"`
	Weights             map[string]float64 `json:"weights,omitempty"`
	TotalRows           int                `json:"total_rows"`
}

func (m QualityMetrics) Clone() QualityMetrics {
	out := m
	if m.Dimensions != nil {
		out.Dimensions = make(map[string]float64, len(m.Dimensions))
		for k, v := range m.Dimensions {
			out.Dimensions[k] = v
		}
	}
	if m.Weights != nil {
		out.Weights = make(map[string]float64, len(m.Weights))
		for k, v := range m.Weights {
			out.Weights[k] = v
		}
	}
	return out
}
