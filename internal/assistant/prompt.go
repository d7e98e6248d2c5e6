package assistant

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/data-alchemist/internal/entities"
)

const systemPrompt = `You convert resource-allocation business rules written in plain English into JSON.

Answer with one JSON object and nothing else:
{"type": "<rule type>", "name": "<short name>", "confidence": <0.0-1.0>, "config": {<fields>}}

Rule types and their config fields:
- coRun: {"taskIds": ["T1", "T2"]} - tasks that must run together (at least two)
- slotRestriction: {"groupType": "client"|"worker", "groupName": "...", "minCommonSlots": 2}
- loadLimit: {"workerGroup": "...", "maxSlotsPerPhase": 3}
- phaseWindow: {"taskId": "T1", "allowedPhases": [1, 2, 3]} - phases are 1 to 5
- patternMatch: {"regex": "...", "template": "...", "parameters": {}}
- precedenceOverride: {"ruleIds": ["..."], "overrideType": "global"|"specific"|"all", "priority": 1-10}

Only use task ids and group names that appear in the data summary when one is given.
Set confidence below 0.5 when the description does not clearly match a rule type.`

// maxListed caps how many identifiers of each kind are sent to the model.
const maxListed = 50

func userPrompt(input string, ds *entities.Dataset) string {
	var b strings.Builder
	if !ds.IsEmpty() {
		b.WriteString("Data summary:\n")
		writeList(&b, "Task IDs", ds.TaskIDs())
		writeList(&b, "Worker groups", ds.WorkerGroups())
		writeList(&b, "Client groups", ds.ClientGroups())
		writeList(&b, "Skills", ds.Skills())
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Rule: %s", input)
	return b.String()
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	more := ""
	if len(values) > maxListed {
		more = fmt.Sprintf(" (+%d more)", len(values)-maxListed)
		values = values[:maxListed]
	}
	fmt.Fprintf(b, "%s: %s%s\n", label, strings.Join(values, ", "), more)
}
