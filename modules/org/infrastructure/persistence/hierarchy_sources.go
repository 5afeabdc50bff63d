package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/helioshr/helios/modules/org/hierarchy"
	"github.com/helioshr/helios/pkg/composables"
)

const (
	departmentNodeQuery = `
		SELECT id, COALESCE(parent_id, 0), business_group_id, company_id, is_active
		FROM departments
		WHERE id = $1`

	departmentChildIDsQuery = `
		SELECT id FROM departments WHERE parent_id = $1 ORDER BY id`

	employeeNodeQuery = `
		SELECT id, COALESCE(supervisor_id, 0), business_group_id, company_id, is_active
		FROM employees
		WHERE id = $1`

	employeeChildIDsQuery = `
		SELECT id FROM employees WHERE supervisor_id = $1 ORDER BY id`

	// The upward walk starts at the node itself; recursion follows parent_id
	// until the corporate root. depth caps runaway recursion on corrupt data.
	departmentPathQuery = `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 0 AS depth
			FROM departments
			WHERE id = $1
			UNION ALL
			SELECT d.id, d.parent_id, chain.depth + 1
			FROM departments d
			JOIN chain ON d.id = chain.parent_id
			WHERE chain.depth < 64
		)
		SELECT id FROM chain ORDER BY depth`

	departmentSubtreeQuery = `
		WITH RECURSIVE subtree AS (
			SELECT id, 0 AS depth
			FROM departments
			WHERE id = $1
			UNION ALL
			SELECT d.id, subtree.depth + 1
			FROM departments d
			JOIN subtree ON d.parent_id = subtree.id
			WHERE subtree.depth < 64
		)
		SELECT id FROM subtree ORDER BY depth, id`
)

// DepartmentNodeSource feeds the hierarchy validator from the departments
// table. Lookups run on whatever transaction the context carries, so edge
// validation sees the same snapshot as the write it protects.
type DepartmentNodeSource struct{}

func NewDepartmentNodeSource() *DepartmentNodeSource { return &DepartmentNodeSource{} }

func (s *DepartmentNodeSource) Node(ctx context.Context, id int64) (hierarchy.Node, error) {
	return queryNode(ctx, departmentNodeQuery, id, ErrDepartmentNotFound)
}

// NodeForUpdate implements hierarchy.NodeLocker; the row stays locked until
// the transaction ends, serializing concurrent moves through the same parent.
func (s *DepartmentNodeSource) NodeForUpdate(ctx context.Context, id int64) (hierarchy.Node, error) {
	return queryNode(ctx, departmentNodeQuery+" FOR UPDATE", id, ErrDepartmentNotFound)
}

func (s *DepartmentNodeSource) Children(ctx context.Context, id int64) ([]int64, error) {
	return queryIDs(ctx, departmentChildIDsQuery, id)
}

// EmployeeNodeSource feeds the hierarchy validator from the employees table;
// the supervisor edge plays the parent role.
type EmployeeNodeSource struct{}

func NewEmployeeNodeSource() *EmployeeNodeSource { return &EmployeeNodeSource{} }

func (s *EmployeeNodeSource) Node(ctx context.Context, id int64) (hierarchy.Node, error) {
	return queryNode(ctx, employeeNodeQuery, id, ErrEmployeeNotFound)
}

// NodeForUpdate implements hierarchy.NodeLocker for supervisor reassignment.
func (s *EmployeeNodeSource) NodeForUpdate(ctx context.Context, id int64) (hierarchy.Node, error) {
	return queryNode(ctx, employeeNodeQuery+" FOR UPDATE", id, ErrEmployeeNotFound)
}

func (s *EmployeeNodeSource) Children(ctx context.Context, id int64) ([]int64, error) {
	return queryIDs(ctx, employeeChildIDsQuery, id)
}

// DepartmentHierarchySource answers the access engine's path and subtree
// lookups with single recursive queries instead of one round trip per edge.
type DepartmentHierarchySource struct{}

func NewDepartmentHierarchySource() *DepartmentHierarchySource {
	return &DepartmentHierarchySource{}
}

func (s *DepartmentHierarchySource) DepartmentPath(ctx context.Context, departmentID int64) ([]int64, error) {
	return queryIDs(ctx, departmentPathQuery, departmentID)
}

func (s *DepartmentHierarchySource) DepartmentSubtree(ctx context.Context, departmentID int64) ([]int64, error) {
	return queryIDs(ctx, departmentSubtreeQuery, departmentID)
}

func queryNode(ctx context.Context, query string, id int64, notFound error) (hierarchy.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return hierarchy.Node{}, err
	}
	var node hierarchy.Node
	err = tx.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.ParentID,
		&node.BusinessGroupID,
		&node.CompanyID,
		&node.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return hierarchy.Node{}, notFound
	}
	if err != nil {
		return hierarchy.Node{}, errors.Wrap(err, "failed to load hierarchy node")
	}
	return node, nil
}

func queryIDs(ctx context.Context, query string, arg int64) ([]int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query hierarchy ids")
	}
	defer rows.Close()

	out := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan hierarchy id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
