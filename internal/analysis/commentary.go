package analysis

import "github.com/rewired-gh/readiness/internal/models"

// Commentary returns the explorer page's question-and-answer blocks.
// The text is fixed and does not read the fitted coefficients.
func Commentary() []models.QA {
	return []models.QA{
		{
			Question: "How do maintenance issues relate to readiness?",
			Answer: "Bases reporting more maintenance issues tend to sit lower on the surface. " +
				"Readiness is expected to fall as unresolved maintenance work accumulates.",
		},
		{
			Question: "What effect do personnel gaps have?",
			Answer: "Staffing shortfalls pull readiness down as well. " +
				"The slope along the personnel axis shows how much each unfilled position costs.",
		},
		{
			Question: "Which bases should be looked at first?",
			Answer: "Points well below the surface are performing worse than their maintenance and staffing " +
				"numbers predict. Those bases are the best candidates for a closer review.",
		},
	}
}
