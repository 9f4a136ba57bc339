package scheduling

import (
	"testing"
	"time"
)

func TestAppointmentFilterWhereClause(t *testing.T) {
	therapistID := int64(1)
	patientID := int64(2)
	status := StatusInProgress
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	type args struct {
		filter AppointmentFilter
	}
	tests := []struct {
		name       string
		args       args
		want       string
		wantParams int
	}{
		{
			name: "should build an empty clause when there are no filters",
			args: args{
				filter: AppointmentFilter{},
			},
			want:       "",
			wantParams: 0,
		},
		{
			name: "should filter by therapist",
			args: args{
				filter: AppointmentFilter{TherapistID: &therapistID},
			},
			want:       " WHERE therapist_id = $1",
			wantParams: 1,
		},
		{
			name: "should normalize the stored status spelling when filtering by status",
			args: args{
				filter: AppointmentFilter{Status: &status},
			},
			want:       " WHERE replace(status, '_', '-') = $1",
			wantParams: 1,
		},
		{
			name: "should combine the filters in order",
			args: args{
				filter: AppointmentFilter{TherapistID: &therapistID, PatientID: &patientID, Day: &day, Status: &status},
			},
			want:       " WHERE therapist_id = $1 AND patient_id = $2 AND $3 = date_trunc('day', date_time) AND replace(status, '_', '-') = $4",
			wantParams: 4,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, params := tt.args.filter.whereClause()

			if got != tt.want {
				t.Errorf("whereClause() = %q, want %q", got, tt.want)
			}
			if len(params) != tt.wantParams {
				t.Errorf("len(params) = %d, want %d", len(params), tt.wantParams)
			}
		})
	}
}
