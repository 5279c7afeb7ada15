package deck

import _ "embed"

// templatePPTX is the base presentation the renderer fills in. Its slides are
// fixed by contract: slide 1 carries the title and date anchors, slide 2 the
// intro label anchors, slides 3 and 4 are the scaffold prototypes cloned for
// main/visual/recommendation slides and dropped from the final output.
//
//go:embed template.pptx
var templatePPTX []byte
