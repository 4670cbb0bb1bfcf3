package petrinet

import "github.com/jazzpetri/engine/verification"

// Marking maps place ids to token counts. Markings produced by the token
// rule list every place of the net, zero counts included, so Key compares
// them structurally.
type Marking = verification.Marking
