package conversation

import (
	"strings"

	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/pkg/sqltoken"
)

// Extraction is what one turn contributed to the entity table.
type Extraction struct {
	Tables  []string
	Columns []string
	Nouns   []string
}

// Extractor pulls tables and columns out of generated SQL and schema nouns
// out of the user's utterance.
type Extractor struct {
	vocab  *Vocabulary
	logger logger.ILogger
}

func NewExtractor(vocab *Vocabulary, log logger.ILogger) *Extractor {
	return &Extractor{vocab: vocab, logger: log}
}

// Analyze never fails. SQL that cannot be tokenized only loses its table and
// column contribution.
func (e *Extractor) Analyze(utterance, sql string) Extraction {
	var ex Extraction

	if strings.TrimSpace(sql) != "" {
		statements, err := sqltoken.Parse(sql)
		if err != nil {
			e.logger.Warn(logger.ModuleExtractor, "SQL could not be tokenized, using utterance nouns only", map[string]interface{}{
				"error": err.Error(),
			})
		}
		c := newCollector()
		for _, stmt := range statements {
			c.walk(stmt.Nodes)
		}
		ex.Tables = c.tables.values
		if len(ex.Tables) > 0 {
			ex.Columns = c.columns.values
		}
	}

	ex.Nouns = e.vocab.Find(utterance)
	return ex
}

// Extract analyzes the turn and folds the result into the session's entity table.
func (e *Extractor) Extract(sess *Session, utterance, sql string) Extraction {
	ex := e.Analyze(utterance, sql)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	for _, table := range ex.Tables {
		rec := sess.mentionLocked(table)
		rec.table = true
		for _, col := range ex.Columns {
			rec.columns[col] = struct{}{}
		}
	}
	for _, noun := range ex.Nouns {
		if containsFold(ex.Tables, noun) || sess.isTableLocked(noun) {
			continue
		}
		sess.mentionLocked(noun)
	}
	return ex
}

type orderedSet struct {
	values []string
	seen   map[string]bool
}

func (s *orderedSet) add(v string) {
	if v == "" || v == "*" || s.seen[v] {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	s.seen[v] = true
	s.values = append(s.values, v)
}

// argQualifiers are the bare words of calls such as EXTRACT(YEAR FROM d),
// TRIM(BOTH ' ' FROM s), SUBSTRING(s FROM 1 FOR 2) or DATE_SUB(d, INTERVAL 1 DAY).
var argQualifiers = map[string]bool{
	"YEAR": true, "QUARTER": true, "MONTH": true, "WEEK": true, "DAY": true, "HOUR": true,
	"MINUTE": true, "SECOND": true, "MICROSECOND": true, "EPOCH": true, "DOW": true, "DOY": true,
	"YEAR_MONTH": true, "DAY_HOUR": true, "DAY_MINUTE": true, "DAY_SECOND": true,
	"BOTH": true, "LEADING": true, "TRAILING": true, "FOR": true,
}

// collector is a sqltoken.Visitor tracking whether it is inside a select list,
// right after FROM/JOIN, or inside the arguments of a call.
type collector struct {
	tables, columns *orderedSet

	inSelect     bool
	tableContext bool
	inArgs       bool
	skip         map[*sqltoken.Identifier]bool
}

func newCollector() *collector {
	return &collector{tables: &orderedSet{}, columns: &orderedSet{}}
}

func (c *collector) walk(nodes []sqltoken.Node) {
	c.inSelect, c.tableContext, c.inArgs = false, false, false
	sqltoken.Walk(c, nodes)
}

func (c *collector) VisitKeyword(k *sqltoken.Keyword) {
	switch {
	case c.inArgs:
		// FROM inside EXTRACT/TRIM/SUBSTRING separates operands, it names no table.
		c.tableContext = false
	case k.Is("SELECT"):
		c.inSelect, c.tableContext = true, false
	case k.Is("FROM"), strings.HasSuffix(k.Value, "JOIN"):
		c.inSelect, c.tableContext = false, true
	default:
		c.tableContext = false
	}
}

func (c *collector) VisitIdentifier(id *sqltoken.Identifier) {
	switch {
	case c.skip[id]:
		c.tableContext = false
	case c.tableContext:
		c.tables.add(id.RealName())
		c.tableContext = false
	case c.inSelect:
		c.addColumns(id)
	case id.Args != nil:
		c.descendArgs(id.Args, false)
	}
}

func (c *collector) VisitIdentifierList(l *sqltoken.IdentifierList) {
	if c.tableContext {
		for _, item := range l.Items {
			switch item := item.(type) {
			case *sqltoken.Identifier:
				c.tables.add(item.RealName())
			case *sqltoken.Group:
				if item.IsSubquery() {
					c.descend(item.Children, false, false)
				}
			}
		}
		c.tableContext = false
		return
	}
	for _, item := range l.Items {
		sqltoken.Dispatch(c, item)
	}
}

func (c *collector) VisitGroup(g *sqltoken.Group) {
	// Expressions inside a select list still name columns; anywhere else
	// only nested sub-SELECTs matter.
	sub := g.IsSubquery()
	c.descend(g.Children, c.inSelect && !sub, c.inArgs && !sub)
	c.tableContext = false
}

func (c *collector) VisitLeaf(*sqltoken.Leaf) {
	c.tableContext = false
}

// descend walks children with fresh clause state and restores it afterwards.
func (c *collector) descend(children []sqltoken.Node, inSelect, inArgs bool) {
	savedSelect, savedTable, savedArgs := c.inSelect, c.tableContext, c.inArgs
	c.inSelect, c.tableContext, c.inArgs = inSelect, false, inArgs
	sqltoken.Walk(c, children)
	c.inSelect, c.tableContext, c.inArgs = savedSelect, savedTable, savedArgs
}

// descendArgs walks the arguments of a call. Only a sub-SELECT among them
// starts clause tracking again.
func (c *collector) descendArgs(args *sqltoken.Group, inSelect bool) {
	if args.IsSubquery() {
		c.descend(args.Children, false, false)
		return
	}
	for id := range unitWords(args.Children) {
		if c.skip == nil {
			c.skip = make(map[*sqltoken.Identifier]bool)
		}
		c.skip[id] = true
	}
	c.descend(args.Children, inSelect, true)
}

func (c *collector) addColumns(id *sqltoken.Identifier) {
	if !id.IsFunction() {
		c.columns.add(id.RealName())
		return
	}
	c.descendArgs(id.Args, true)
}

// unitWords finds the unit and trim words of a call written as
// "<word> FROM <expr>" or with an INTERVAL. Other calls keep every argument.
func unitWords(args []sqltoken.Node) map[*sqltoken.Identifier]bool {
	qualified := false
	for _, n := range args {
		if k, ok := n.(*sqltoken.Keyword); ok && (k.Is("FROM") || k.Is("INTERVAL")) {
			qualified = true
			break
		}
	}
	if !qualified {
		return nil
	}
	out := make(map[*sqltoken.Identifier]bool)
	for _, n := range args {
		id, ok := n.(*sqltoken.Identifier)
		if ok && len(id.Parts) == 1 && !id.IsFunction() && argQualifiers[strings.ToUpper(id.Parts[0])] {
			out[id] = true
		}
	}
	return out
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
