package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/relabs-tech/crudkit/core/csql"
	ierr "github.com/relabs-tech/crudkit/core/errors"
	"github.com/relabs-tech/crudkit/core/logger"
)

// Postgres stores every collection in its own table of the configured schema.
// Documents are kept as jsonb, identifiers are UUIDs.
type Postgres struct {
	db *csql.DB
}

// OpenPostgres opens the postgres store. The schema gets created if it does not exist yet.
func OpenPostgres(dataSource, schema string) (*Postgres, error) {
	db, err := csql.OpenWithSchema(dataSource, schema)
	if err != nil {
		return nil, err
	}
	return NewPostgres(db), nil
}

// NewPostgres returns a store on an open database
func NewPostgres(db *csql.DB) *Postgres {
	return &Postgres{db: db}
}

// DB returns the underlying database
func (p *Postgres) DB() *csql.DB {
	return p.db
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Collection implements Store
func (p *Postgres) Collection(ctx context.Context, name string) (Collection, error) {
	if !identifierRegex.MatchString(name) {
		return nil, errors.Newf("invalid collection name %q", name)
	}
	table := p.db.Schema + `."` + name + `"`
	_, err := p.db.ExecContext(ctx, `CREATE table IF NOT EXISTS `+table+`
(id uuid NOT NULL DEFAULT uuid_generate_v4(),
seq bigserial NOT NULL,
revision integer NOT NULL DEFAULT 0,
properties jsonb NOT NULL,
PRIMARY KEY(id)
);`)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create table %s", table)
	}
	logger.FromContext(ctx).Debugln("postgres collection:", table)
	return &postgresCollection{db: p.db, name: name, table: table, indexes: map[string]string{}}, nil
}

// Close implements Store
func (p *Postgres) Close(ctx context.Context) error {
	return p.db.Close()
}

type postgresCollection struct {
	db    *csql.DB
	name  string
	table string
	// unique index name to field
	indexes map[string]string
}

func (c *postgresCollection) Name() string {
	return c.name
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (c *postgresCollection) indexName(field string) string {
	return c.name + "_" + strings.ReplaceAll(field, ".", "_") + "_unique"
}

func (c *postgresCollection) EnsureUnique(ctx context.Context, field string) error {
	path := "{" + strings.Join(strings.Split(field, "."), ",") + "}"
	index := c.indexName(field)
	_, err := c.db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS "`+index+`" ON `+c.table+
		` ((properties #>> `+quoteLiteral(path)+`));`)
	if err != nil {
		return c.mapError(err, nil)
	}
	c.indexes[index] = field
	return nil
}

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &ierr.CastError{Field: IDField, Value: id, Err: err}
	}
	return nil
}

// mapError converts postgres errors into typed storage errors. doc is the document
// which was written, if any.
func (c *postgresCollection) mapError(err error, doc Document) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		field := c.indexes[pqErr.Constraint]
		if field == "" {
			field = pqErr.Constraint
		}
		var value any
		if doc != nil {
			value, _ = lookup(doc, field)
		}
		return &ierr.DuplicateKeyError{Field: field, Value: value, Err: err}
	case "22P02": // invalid_text_representation
		return &ierr.CastError{Field: IDField, Value: pqErr.Message, Err: err}
	}
	return err
}

func (c *postgresCollection) scan(row interface{ Scan(...any) error }) (Document, error) {
	var (
		id         uuid.UUID
		revision   int
		properties []byte
	)
	if err := row.Scan(&id, &revision, &properties); err != nil {
		return nil, err
	}
	doc := Document{}
	if err := json.Unmarshal(properties, &doc); err != nil {
		return nil, err
	}
	doc[IDField] = id.String()
	doc[VersionField] = float64(revision)
	return doc, nil
}

func stripSystemFields(doc Document) Document {
	result := make(Document, len(doc))
	for k, v := range doc {
		if k == IDField || k == VersionField {
			continue
		}
		result[k] = v
	}
	return result
}

func (c *postgresCollection) Insert(ctx context.Context, doc Document) (Document, error) {
	properties, err := json.Marshal(stripSystemFields(doc))
	if err != nil {
		return nil, err
	}
	row := c.db.QueryRowContext(ctx, `INSERT INTO `+c.table+` (properties) VALUES($1) RETURNING id, revision, properties;`,
		string(properties))
	result, err := c.scan(row)
	if err != nil {
		return nil, c.mapError(err, doc)
	}
	return result, nil
}

// whereClause builds the sql condition of filter. Parameters start at $1.
func whereClause(filter Filter) (string, []any, error) {
	conditions, err := filter.Conditions()
	if err != nil {
		return "", nil, err
	}
	var (
		clauses    []string
		parameters []any
	)
	param := func(v any) string {
		parameters = append(parameters, v)
		return "$" + strconv.Itoa(len(parameters))
	}
	jsonParam := func(v any) (string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return param(string(data)) + "::jsonb", nil
	}

	for _, cond := range conditions {
		if cond.Field == IDField {
			clause, err := idClause(cond, param)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, clause)
			continue
		}
		path := "properties #> " + param(pq.Array(strings.Split(cond.Field, "."))) + "::text[]"
		switch cond.Op {
		case OpExists:
			if cond.Value.(bool) {
				clauses = append(clauses, path+" IS NOT NULL")
			} else {
				clauses = append(clauses, path+" IS NULL")
			}
		case OpEq, OpNe:
			var clause string
			if cond.Value == nil {
				clause = "(" + path + " IS NULL OR " + path + " = 'null'::jsonb)"
			} else {
				value, err := jsonParam(cond.Value)
				if err != nil {
					return "", nil, err
				}
				// arrays match if they contain the value
				clause = "(" + path + " = " + value + " OR (jsonb_typeof(" + path + ") = 'array' AND " +
					path + " @> jsonb_build_array(" + value + ")))"
			}
			if cond.Op == OpNe {
				clause = "NOT COALESCE(" + clause + ", false)"
			}
			clauses = append(clauses, clause)
		case OpIn, OpNin:
			values, err := jsonParam(cond.Value)
			if err != nil {
				return "", nil, err
			}
			clause := "(" + values + " @> jsonb_build_array(COALESCE(" + path + ", 'null'::jsonb)))"
			if cond.Op == OpNin {
				clause = "NOT " + clause
			}
			clauses = append(clauses, clause)
		default:
			value, err := jsonParam(cond.Value)
			if err != nil {
				return "", nil, err
			}
			op := map[string]string{OpGt: ">", OpGte: ">=", OpLt: "<", OpLte: "<="}[cond.Op]
			clauses = append(clauses, "(jsonb_typeof("+path+") = jsonb_typeof("+value+") AND "+path+" "+op+" "+value+")")
		}
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), parameters, nil
}

func idClause(cond Condition, param func(any) string) (string, error) {
	toID := func(v any) (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", &ierr.CastError{Field: IDField, Value: fmt.Sprint(v)}
		}
		return s, checkUUID(s)
	}
	switch cond.Op {
	case OpEq, OpNe:
		id, err := toID(cond.Value)
		if err != nil {
			return "", err
		}
		op := "="
		if cond.Op == OpNe {
			op = "<>"
		}
		return "id " + op + " " + param(id) + "::uuid", nil
	case OpIn, OpNin:
		var ids []string
		for _, v := range cond.Value.([]any) {
			id, err := toID(v)
			if err != nil {
				return "", err
			}
			ids = append(ids, id)
		}
		clause := "id = ANY(" + param(pq.Array(ids)) + "::uuid[])"
		if cond.Op == OpNin {
			clause = "NOT " + clause
		}
		return clause, nil
	case OpExists:
		if cond.Value.(bool) {
			return "true", nil
		}
		return "false", nil
	}
	return "", badFilter("Unsupported filter operator %s for id", cond.Op)
}

func (c *postgresCollection) Find(ctx context.Context, query Query) ([]Document, error) {
	where, parameters, err := whereClause(query.Filter)
	if err != nil {
		return nil, err
	}
	var order []string
	for _, sf := range query.Sort {
		direction := " ASC NULLS FIRST"
		if sf.Descending {
			direction = " DESC NULLS LAST"
		}
		if sf.Field == IDField {
			order = append(order, "id"+direction)
			continue
		}
		parameters = append(parameters, pq.Array(strings.Split(sf.Field, ".")))
		order = append(order, "properties #> $"+strconv.Itoa(len(parameters))+"::text[]"+direction)
	}
	order = append(order, "seq ASC")

	sqlQuery := `SELECT id, revision, properties FROM ` + c.table + where + ` ORDER BY ` + strings.Join(order, ", ")
	if query.Limit > 0 {
		sqlQuery += " LIMIT " + strconv.Itoa(query.Limit)
	}
	if query.Skip > 0 {
		sqlQuery += " OFFSET " + strconv.Itoa(query.Skip)
	}

	rows, err := c.db.QueryContext(ctx, sqlQuery+";", parameters...)
	if err != nil {
		return nil, c.mapError(err, nil)
	}
	defer rows.Close()
	result := []Document{}
	for rows.Next() {
		doc, err := c.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (c *postgresCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	where, parameters, err := whereClause(filter)
	if err != nil {
		return 0, err
	}
	var count int64
	err = c.db.QueryRowContext(ctx, `SELECT count(*) FROM `+c.table+where+`;`, parameters...).Scan(&count)
	return count, c.mapError(err, nil)
}

func (c *postgresCollection) FindByID(ctx context.Context, id string) (Document, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	doc, err := c.scan(c.db.QueryRowContext(ctx, `SELECT id, revision, properties FROM `+c.table+` WHERE id=$1;`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, c.mapError(err, nil)
	}
	return doc, nil
}

func (c *postgresCollection) UpdateByID(ctx context.Context, id string, set Document) (Document, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	changes, err := json.Marshal(stripSystemFields(set))
	if err != nil {
		return nil, err
	}
	doc, err := c.scan(c.db.QueryRowContext(ctx, `UPDATE `+c.table+
		` SET properties = properties || $1::jsonb, revision = revision + 1 WHERE id=$2 RETURNING id, revision, properties;`,
		string(changes), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, c.mapError(err, set)
	}
	return doc, nil
}

func (c *postgresCollection) DeleteByID(ctx context.Context, id string) (Document, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	doc, err := c.scan(c.db.QueryRowContext(ctx, `DELETE FROM `+c.table+` WHERE id=$1 RETURNING id, revision, properties;`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, c.mapError(err, nil)
	}
	return doc, nil
}
