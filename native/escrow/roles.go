package escrow

// Role identifies the capacity in which a caller participates in an escrow.
type Role uint8

const (
	RoleNone Role = iota
	RoleSeller
	RoleBuyer
	RoleAgent
	RoleInspector
)

func (r Role) String() string {
	switch r {
	case RoleSeller:
		return "seller"
	case RoleBuyer:
		return "buyer"
	case RoleAgent:
		return "agent"
	case RoleInspector:
		return "inspector"
	default:
		return "none"
	}
}

// ResolveRole maps a caller identity onto its escrow role using the fixed
// precedence seller, buyer, agent, inspector; the first match wins when one
// identity structurally holds several roles. Absent optional roles (zero
// address) never match.
func ResolveRole(e *Escrow, caller [20]byte) Role {
	if e == nil || caller == ([20]byte{}) {
		return RoleNone
	}
	switch {
	case caller == e.Seller:
		return RoleSeller
	case caller == e.Buyer:
		return RoleBuyer
	case e.HasAgent() && caller == e.Agent:
		return RoleAgent
	case e.HasInspector() && caller == e.Inspector:
		return RoleInspector
	default:
		return RoleNone
	}
}

// IsParticipant reports whether the caller holds any role on the escrow.
func IsParticipant(e *Escrow, caller [20]byte) bool {
	return ResolveRole(e, caller) != RoleNone
}

// QuorumSatisfied reports whether every required approval has been recorded:
// seller and buyer always, agent and inspector only when present. An absent
// optional role never blocks quorum.
func QuorumSatisfied(e *Escrow) bool {
	if e == nil {
		return false
	}
	if !e.SellerApproved || !e.BuyerApproved {
		return false
	}
	if e.HasAgent() && !e.AgentApproved {
		return false
	}
	if e.HasInspector() && !e.InspectorApproved {
		return false
	}
	return true
}
