package protocol

// SUB (client -> server). Opens the cell-change stream for one grid.
type SubMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Grid            string `json:"grid"`
}

// EVENT (server -> client). One cell changed state. The packed value carries
// owner/powerup/team; x and y are present only when the gateway resolves
// coordinates itself, otherwise the key locates the cell.
type EventMsg struct {
	Type  string `json:"type"`
	Grid  string `json:"grid"`
	Key   string `json:"key"`
	Value string `json:"value"`
	X     *int   `json:"x,omitempty"`
	Y     *int   `json:"y,omitempty"`
}

// FLIP (client -> server). One batch claim submitted as a single action.
type FlipMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ID              uint64     `json:"id"`
	Grid            string     `json:"grid"`
	Cells           []FlipCell `json:"cells"`
}

type FlipCell struct {
	X    int   `json:"x"`
	Y    int   `json:"y"`
	Team uint8 `json:"team"`
}

// RESULT (server -> client). Outcome of one FLIP, matched by id. Ref is the
// action reference when ok, Err an E_* code when not.
type ResultMsg struct {
	Type string `json:"type"`
	ID   uint64 `json:"id"`
	OK   bool   `json:"ok"`
	Ref  string `json:"ref,omitempty"`
	Err  string `json:"err,omitempty"`
}
