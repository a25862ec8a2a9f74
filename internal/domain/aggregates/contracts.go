package aggregates

import (
	"fmt"
	"strings"
)

// WriteTxOwnership says who opens the transaction around a write.
type WriteTxOwnership string

// WriteTxOwnedByAggregate means every write method opens and commits its own
// transaction; callers never pass one in.
const WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"

// ReadPolicy limits the reads an aggregate performs inside a write.
type ReadPolicy string

// ReadPolicyInvariantScoped allows only the reads an invariant check needs.
// Listing and resolution stay on the table repos.
const ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"

// Contract names the write boundary of one aggregate. Every op the aggregate
// runs is namespaced under OpPrefix.
type Contract struct {
	Name             string
	OpPrefix         string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Owns reports whether op belongs to this aggregate's namespace.
func (c Contract) Owns(op string) bool {
	prefix := strings.TrimSpace(c.OpPrefix)
	return prefix != "" && strings.HasPrefix(op, prefix+".")
}

// Guard fails with CodeInternal when op may not run as a write of c.
func (c Contract) Guard(op string) error {
	if !c.RequiresAggregateOwnedTx() {
		return NewError(CodeInternal, op, fmt.Sprintf("%s does not own its write transactions", c.Name), nil)
	}
	if !c.Owns(op) {
		return NewError(CodeInternal, op, fmt.Sprintf("%s does not own operation %s", c.Name, op), nil)
	}
	return nil
}
