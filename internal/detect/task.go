package detect

import (
	"regexp"
	"strings"
)

// TaskType is a coarse category inferred from command text, used to
// select the completion vocabulary for that command.
type TaskType string

const (
	TaskTest    TaskType = "test"
	TaskScript  TaskType = "script"
	TaskFile    TaskType = "file"
	TaskInstall TaskType = "install"
	TaskBuild   TaskType = "build"
	TaskRun     TaskType = "run"
	TaskSearch  TaskType = "search"
	TaskAnalyze TaskType = "analyze"
	TaskUnknown TaskType = "unknown"
)

// taskPatterns scores commands against each category. Order matters:
// ties between equal non-zero scores go to the first category listed.
var taskPatterns = []struct {
	taskType TaskType
	patterns []string
	regexes  []*regexp.Regexp
}{
	{taskType: TaskTest, patterns: []string{
		`\btest\b`, `\bpytest\b`, `\bunittest\b`, `\bcheck\b`, `\bverify\b`,
		`\brun tests\b`, `\bexecute tests\b`, `\btest suite\b`, `\btesting\b`,
	}},
	{taskType: TaskScript, patterns: []string{
		`\bscript\b`, `\bpython\b`, `\bnode\b`, `\bruby\b`, `\bperl\b`,
		`\bexecute\b`, `\brun\b`, `\bstart\b`, `\blaunch\b`, `\bcreate.*script\b`,
	}},
	{taskType: TaskFile, patterns: []string{
		`\bfile\b`, `\bcreate\b`, `\bwrite\b`, `\bsave\b`, `\bedit\b`,
		`\bmodify\b`, `\bupdate\b`, `\bgenerate\b`, `\boutput.*file\b`,
	}},
	{taskType: TaskInstall, patterns: []string{
		`\binstall\b`, `\bsetup\b`, `\bconfigure\b`, `\binit\b`, `\binitialize\b`,
		`\bpackage\b`, `\bdependency\b`, `\brequirements\b`, `\bnpm install\b`,
		`\bpip install\b`, `\bbrew install\b`, `\bapt install\b`,
	}},
	{taskType: TaskBuild, patterns: []string{
		`\bbuild\b`, `\bcompile\b`, `\bmake\b`, `\bcmake\b`, `\bgradle\b`,
		`\bmaven\b`, `\bwebpack\b`, `\bbundler\b`, `\bconstruction\b`,
	}},
	{taskType: TaskRun, patterns: []string{
		`\brun\b`, `\bexecute\b`, `\bstart\b`, `\blaunch\b`, `\bprocess\b`,
		`\bprogram\b`, `\bapplication\b`, `\bserver\b`, `\bservice\b`,
	}},
	{taskType: TaskSearch, patterns: []string{
		`\bsearch\b`, `\bfind\b`, `\blookup\b`, `\bquery\b`, `\bdiscover\b`,
		`\bexplore\b`, `\bscan\b`, `\bseek\b`,
	}},
	{taskType: TaskAnalyze, patterns: []string{
		`\banalyze\b`, `\bexamine\b`, `\binvestigate\b`, `\bstudy\b`, `\bdebug\b`,
		`\bprofile\b`, `\boptimize\b`, `\bperformance\b`,
	}},
}

func init() {
	for i := range taskPatterns {
		for _, p := range taskPatterns[i].patterns {
			taskPatterns[i].regexes = append(taskPatterns[i].regexes, regexp.MustCompile(`(?i)`+p))
		}
	}
}

// ClassifyTask maps free-text command strings to a TaskType by keyword
// scoring: +1 per regex match, +0.5 extra for an exact substring hit.
// The highest-scoring non-zero category wins; on a tie the category
// listed first in taskPatterns wins; all-zero scores yield TaskUnknown.
// Deterministic and stateless.
func ClassifyTask(command string) TaskType {
	if command == "" {
		return TaskUnknown
	}
	lower := strings.ToLower(command)

	best := TaskUnknown
	bestScore := 0.0

	for _, tp := range taskPatterns {
		score := 0.0
		for _, re := range tp.regexes {
			if re.MatchString(lower) {
				score++
			}
		}
		for _, p := range tp.patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				score += 0.5
			}
		}
		if score > bestScore {
			bestScore = score
			best = tp.taskType
		}
	}

	return best
}
