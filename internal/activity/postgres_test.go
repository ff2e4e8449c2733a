package activity

import (
	"reflect"
	"strings"
	"testing"

	"github.com/urbanpulse/report-server/internal/models"
)

func TestSelectActivities(t *testing.T) {
	tests := []struct {
		name      string
		q         models.ActivityQuery
		wantWhere string
		wantTail  string
		wantArgs  []any
	}{
		{
			name:     "everything",
			wantTail: " ORDER BY created_at DESC, id DESC",
		},
		{
			name:      "report and types",
			q:         models.ActivityQuery{ReportID: models.ID64(4), Types: []models.ActivityType{models.ActivityStatusChanged}},
			wantWhere: " WHERE report_id = $1 AND activity_type = ANY($2)",
			wantTail:  " ORDER BY created_at DESC, id DESC",
			wantArgs:  []any{int64(4), []string{"status_changed"}},
		},
		{
			name:      "user with limit",
			q:         models.ActivityQuery{UserID: models.ID64(2), Limit: 20},
			wantWhere: " WHERE user_id = $1",
			wantTail:  " ORDER BY created_at DESC, id DESC LIMIT $2",
			wantArgs:  []any{int64(2), 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := selectActivities(tt.q)
			if !strings.HasSuffix(query, "FROM activity_logs"+tt.wantWhere+tt.wantTail) {
				t.Errorf("query = %q", query)
			}
			if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}
