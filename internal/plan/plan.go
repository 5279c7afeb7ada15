// Package plan computes the slide budget for a requested presentation and
// builds the generation prompt. Everything here is pure: no I/O, no failure
// modes beyond clamping.
package plan

// Plan is the slide budget derived from a requested slide count. Three slides
// are always reserved for title, intro, and recommendation; the rest are main
// content slides.
type Plan struct {
	// SlideCount is the adjusted total slide count.
	SlideCount int
	// MainCount is the number of main content slides, always >= 1.
	MainCount int
	// IncludeVisuals requests a visual suggestion on each main slide.
	IncludeVisuals bool
	// Uneven is set when the body slides do not split evenly between
	// narrative and visual content; the prompt then instructs the model to
	// mark the last main slide's visual as "none".
	Uneven bool
}

// Build derives the slide budget. With visuals enabled, each main topic is
// expected to produce a content slide plus a visual slide, so the body budget
// is halved; an odd remainder keeps the extra slide and flags the plan uneven.
func Build(slideCount int, includeVisuals bool) Plan {
	remaining := slideCount - 3
	if remaining < 1 {
		remaining = 1
		slideCount = 4
	}

	p := Plan{SlideCount: slideCount, IncludeVisuals: includeVisuals}
	if !includeVisuals {
		p.MainCount = remaining
		return p
	}

	main := remaining / 2
	if remaining%2 == 1 {
		main++
		p.Uneven = true
	} else {
		p.SlideCount = main + 3
	}
	if main < 1 {
		main = 1
	}
	p.MainCount = main
	return p
}

// Note returns the advisory appended to the prompt for uneven plans.
func (p Plan) Note() string {
	if !p.Uneven {
		return ""
	}
	return "• Qeyd: Slayd sayı tam bölünmədiyi üçün sonuncu Əsas slayd `visual.type = 'none'` olaraq təyin edilməlidir."
}
