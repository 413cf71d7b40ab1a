package store

import (
	"fmt"
	"strings"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/chaosprobe/chaosprobe/internal/database"
)

// queryBuilder accumulates optional (condition, parameter) pairs for a
// SELECT. Conditions are ANDed; an omitted filter imposes no constraint.
type queryBuilder struct {
	conds  []string
	params []rdstypes.SqlParameter
}

func (b *queryBuilder) where(cond string, params ...rdstypes.SqlParameter) {
	b.conds = append(b.conds, cond)
	b.params = append(b.params, params...)
}

// whereIn adds a membership condition over named placeholders
// :<prefix>_0..:<prefix>_n for the given column.
func (b *queryBuilder) whereIn(column, prefix string, ids []int64) {
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		name := fmt.Sprintf("%s_%d", prefix, i)
		placeholders[i] = ":" + name
		b.params = append(b.params, database.Param(name, id))
	}
	b.conds = append(b.conds, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

// whereILike adds a case-insensitive substring match across one or more
// text columns, ORed together.
func (b *queryBuilder) whereILike(needle, prefix string, columns ...string) {
	parts := make([]string, len(columns))
	for i, col := range columns {
		name := fmt.Sprintf("%s_%d", prefix, i)
		parts[i] = fmt.Sprintf("UPPER(%s) LIKE UPPER(:%s)", col, name)
		b.params = append(b.params, database.Param(name, "%"+needle+"%"))
	}
	b.conds = append(b.conds, "("+strings.Join(parts, " OR ")+")")
}

// build assembles base + WHERE + orderLimit. orderLimit carries the ORDER BY
// and LIMIT clauses; its parameters must already be in b.params.
func (b *queryBuilder) build(base, orderLimit string) string {
	sql := base
	if len(b.conds) > 0 {
		sql += " WHERE " + strings.Join(b.conds, " AND ")
	}
	return sql + orderLimit
}

// updateBuilder accumulates SET clauses for a dynamic UPDATE containing only
// the fields the caller supplied.
type updateBuilder struct {
	fields []string
	params []rdstypes.SqlParameter
}

func (b *updateBuilder) set(clause string, param rdstypes.SqlParameter) {
	b.fields = append(b.fields, clause)
	b.params = append(b.params, param)
}

func (b *updateBuilder) empty() bool { return len(b.fields) == 0 }

// build assembles the UPDATE, always refreshing updated_at.
func (b *updateBuilder) build(table, whereClause string) string {
	fields := append(b.fields, "updated_at = CURRENT_TIMESTAMP")
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(fields, ", "), whereClause)
}
