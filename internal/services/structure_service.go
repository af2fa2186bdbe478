package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/repositories"
)

// structureLine matches entries such as t1/4003_c1; the conversation suffix is optional.
var structureLine = regexp.MustCompile(`^([A-Za-z0-9]+)/([A-Za-z0-9-]+)(?:_c(\d+))?(?:_.*)?$`)

// Structure maps timepoint code -> couple code -> conversation numbers.
type Structure struct {
	Timepoints map[string]map[string][]int `yaml:"timepoints" json:"timepoints"`
}

// YAML renders the structure with sorted keys.
func (s *Structure) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// ParseStructureYAML reads a structure previously rendered by YAML.
func ParseStructureYAML(data []byte) (*Structure, error) {
	var s Structure
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, newValidationError(fmt.Errorf("invalid structure yaml: %w", err))
	}
	if s.Timepoints == nil {
		s.Timepoints = map[string]map[string][]int{}
	}
	return &s, nil
}

// LineError reports an input line that could not be parsed.
type LineError struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

type LineErrors []LineError

func (e LineErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, le := range e {
		parts = append(parts, fmt.Sprintf("line %d: cannot parse %q", le.Line, le.Text))
	}
	return strings.Join(parts, "; ")
}

type ApplyStats struct {
	TimepointsCreated    int `json:"timepoints_created"`
	CouplesCreated       int `json:"couples_created"`
	ConversationsCreated int `json:"conversations_created"`
	Existing             int `json:"existing"`
}

type structureService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewStructureService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) StructureService {
	return &structureService{repo: repo, db: db, logger: logger}
}

func (s *structureService) Parse(input string) (*Structure, error) {
	return ParseStructure(input)
}

// ParseStructure reads one path per line. Blank lines are skipped and every
// unparseable line is reported.
func ParseStructure(input string) (*Structure, error) {
	out := &Structure{Timepoints: map[string]map[string][]int{}}
	var bad LineErrors

	for i, raw := range strings.Split(input, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := structureLine.FindStringSubmatch(line)
		if m == nil {
			bad = append(bad, LineError{Line: i + 1, Text: line})
			continue
		}

		tp := strings.ToUpper(m[1])
		couples, ok := out.Timepoints[tp]
		if !ok {
			couples = map[string][]int{}
			out.Timepoints[tp] = couples
		}
		convos := couples[m[2]]
		if m[3] != "" {
			n, err := strconv.Atoi(m[3])
			if err != nil || n < 1 {
				bad = append(bad, LineError{Line: i + 1, Text: line})
				continue
			}
			if !slices.Contains(convos, n) {
				convos = append(convos, n)
				sort.Ints(convos)
			}
		}
		if convos == nil {
			convos = []int{}
		}
		couples[m[2]] = convos
	}

	if len(bad) > 0 {
		return nil, newValidationError(bad)
	}
	return out, nil
}

// Apply creates whatever part of the structure is missing. Running it twice
// creates nothing the second time.
func (s *structureService) Apply(ctx context.Context, st *Structure) (*ApplyStats, error) {
	stats := &ApplyStats{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tpCode := range sortedKeys(st.Timepoints) {
			tp, created, err := s.repo.Structure().EnsureTimepoint(ctx, tx, tpCode)
			if err != nil {
				return err
			}
			stats.count(created, &stats.TimepointsCreated)

			couples := st.Timepoints[tpCode]
			for _, coupleCode := range sortedKeys(couples) {
				cp, created, err := s.repo.Structure().EnsureCouple(ctx, tx, tp.ID, coupleCode)
				if err != nil {
					return err
				}
				stats.count(created, &stats.CouplesCreated)

				for _, n := range couples[coupleCode] {
					_, created, err := s.repo.Conversation().Ensure(ctx, tx, cp.ID, n)
					if err != nil {
						return err
					}
					stats.count(created, &stats.ConversationsCreated)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply structure: %w", err)
	}

	s.logger.Info("Structure applied",
		"timepoints_created", stats.TimepointsCreated,
		"couples_created", stats.CouplesCreated,
		"conversations_created", stats.ConversationsCreated,
		"existing", stats.Existing)
	return stats, nil
}

func (a *ApplyStats) count(created bool, field *int) {
	if created {
		*field++
		return
	}
	a.Existing++
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
