package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ziadkadry99/data-alchemist/internal/entities"
)

// Column orders match the headers the loader reads.
var (
	clientHeader = []string{"ClientID", "ClientName", "PriorityLevel", "RequestedTaskIDs", "GroupTag", "AttributesJSON"}
	workerHeader = []string{"WorkerID", "WorkerName", "Skills", "AvailableSlots", "MaxLoadPerPhase", "WorkerGroup", "QualificationLevel"}
	taskHeader   = []string{"TaskID", "TaskName", "Category", "Duration", "RequiredSkills", "PreferredPhases", "MaxConcurrent"}
)

// WriteCSV writes one entity collection of ds to w.
func WriteCSV(w io.Writer, kind entities.Kind, ds *entities.Dataset) error {
	if ds == nil {
		ds = &entities.Dataset{}
	}
	cw := csv.NewWriter(w)

	var records [][]string
	switch kind {
	case entities.KindClients:
		records = append(records, clientHeader)
		for _, c := range ds.Clients {
			records = append(records, []string{
				c.ClientID, c.ClientName, strconv.Itoa(c.PriorityLevel),
				c.RequestedTaskIDs, c.GroupTag, c.AttributesJSON,
			})
		}
	case entities.KindWorkers:
		records = append(records, workerHeader)
		for _, wk := range ds.Workers {
			records = append(records, []string{
				wk.WorkerID, wk.WorkerName, wk.Skills, wk.AvailableSlots,
				strconv.Itoa(wk.MaxLoadPerPhase), wk.WorkerGroup, strconv.Itoa(wk.QualificationLevel),
			})
		}
	case entities.KindTasks:
		records = append(records, taskHeader)
		for _, t := range ds.Tasks {
			records = append(records, []string{
				t.TaskID, t.TaskName, t.Category, strconv.Itoa(t.Duration),
				t.RequiredSkills, t.PreferredPhases, strconv.Itoa(t.MaxConcurrent),
			})
		}
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing %s csv: %w", kind, err)
	}
	return nil
}
