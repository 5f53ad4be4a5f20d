package cluster

// Controller wires Node, Table and Replicator together behind the
// small surface internal/dispatch.Cluster needs: MOVED lookups, the
// replica read-only guard, CLUSTERDOWN, and broadcast.
type Controller struct {
	Self        *Node
	Table       *Table
	Replicator  *Replicator
}

func NewController(self *Node, table *Table, replicator *Replicator) *Controller {
	return &Controller{Self: self, Table: table, Replicator: replicator}
}

// OwnerAddr implements dispatch.Cluster.
func (c *Controller) OwnerAddr(slot uint16) (string, bool) {
	start, end := c.Self.SlotRange()
	selfOwns := c.Self.Role() == RoleMaster && slot >= start && slot < end
	selfInfo := NeighborInfo{
		NodeID: c.Self.ID, Role: RoleMaster,
		SlotStart: start, SlotEnd: end,
	}
	client, _ := c.Self.Addrs()
	selfInfo.ClientAddr = client

	owner, ok := c.Table.OwnerOfSlot(slot, selfOwns, selfInfo)
	if !ok {
		return "", false
	}
	return owner.ClientAddr.String(), true
}

// IsReplica implements dispatch.Cluster.
func (c *Controller) IsReplica() bool { return c.Self.IsReplica() }

// ClusterDown implements dispatch.Cluster.
func (c *Controller) ClusterDown() bool { return c.Self.ClusterState() == 1 }

// BroadcastCommand implements dispatch.Cluster.
func (c *Controller) BroadcastCommand(tokens []string) { c.Replicator.Broadcast(tokens) }

// RecomputeAndStoreState recomputes cluster_state and updates Self,
// called after any change to a known master's flags or slot range.
func (c *Controller) RecomputeAndStoreState() {
	c.Self.SetClusterState(RecomputeClusterState(c.Self, c.Table))
}
