package request

import "fmt"

// PacketType discriminates the classical messages the two netstacks exchange
// during the session rendezvous.
type PacketType string

const (
	// PacketCreate carries the initiator's request parameters to the peer.
	PacketCreate PacketType = "create"
	// PacketReady acknowledges a create packet; it commits the receiver to
	// the initiator's kind and pair count.
	PacketReady PacketType = "ready"
)

// Packet is the envelope sent over the peer channel. Exactly one payload
// field matching Type is set.
type Packet struct {
	Type   PacketType    `json:"type" yaml:"type"`
	Create *CreatePacket `json:"create,omitempty" yaml:"create,omitempty"`
	Ready  *ReadyPacket  `json:"ready,omitempty" yaml:"ready,omitempty"`
}

// CreatePacket announces a new session and its negotiated parameters.
type CreatePacket struct {
	SessionID   string  `json:"sessionID" yaml:"sessionID"`
	FromNode    string  `json:"fromNode" yaml:"fromNode"`
	PurposeID   int     `json:"purposeID" yaml:"purposeID"`
	Kind        Kind    `json:"kind" yaml:"kind"`
	NumPairs    int     `json:"numPairs" yaml:"numPairs"`
	MinFidelity float64 `json:"minFidelity" yaml:"minFidelity"`
}

// ReadyPacket echoes the session the receiver is committing to.
type ReadyPacket struct {
	SessionID string `json:"sessionID" yaml:"sessionID"`
	FromNode  string `json:"fromNode" yaml:"fromNode"`
	PurposeID int    `json:"purposeID" yaml:"purposeID"`
}

// Validate checks the envelope invariant: the payload matches the type.
func (p *Packet) Validate() error {
	switch p.Type {
	case PacketCreate:
		if p.Create == nil {
			return fmt.Errorf("packet: create payload missing")
		}
	case PacketReady:
		if p.Ready == nil {
			return fmt.Errorf("packet: ready payload missing")
		}
	default:
		return fmt.Errorf("packet: unsupported type %q", p.Type)
	}
	return nil
}
