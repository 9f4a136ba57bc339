package scheduling

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"clinic-scheduling/internal/auth"
	"clinic-scheduling/internal/configs"
	"clinic-scheduling/internal/directory"
	"clinic-scheduling/internal/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type emptyWriter struct{}

func (e emptyWriter) Write(p []byte) (n int, err error) {
	return 0, nil
}

var logger = log.New(&emptyWriter{}, "", log.LstdFlags)

type mockAuthorizer struct {
	mockValidateToken        func(ctx context.Context, token string) (*auth.User, error)
	mockRefreshTokens        func(ctx context.Context, tokens auth.Tokens) (*auth.Tokens, error)
	mockGetAuthenticatedUser func(ctx context.Context) (auth.User, error)
}

func (m mockAuthorizer) ValidateToken(ctx context.Context, token string) (*auth.User, error) {
	return m.mockValidateToken(ctx, token)
}

func (m mockAuthorizer) RefreshTokens(ctx context.Context, tokens auth.Tokens) (*auth.Tokens, error) {
	return m.mockRefreshTokens(ctx, tokens)
}

func (m mockAuthorizer) GetAuthenticatedUser(ctx context.Context) (auth.User, error) {
	return m.mockGetAuthenticatedUser(ctx)
}

type mockResolver struct {
	mockResolvePatient   func(ctx context.Context, patientUUID uuid.UUID) (*directory.Patient, error)
	mockResolveTherapist func(ctx context.Context, therapistUUID uuid.UUID) (*directory.Therapist, error)
}

func (m mockResolver) ResolvePatient(ctx context.Context, patientUUID uuid.UUID) (*directory.Patient, error) {
	return m.mockResolvePatient(ctx, patientUUID)
}

func (m mockResolver) ResolveTherapist(ctx context.Context, therapistUUID uuid.UUID) (*directory.Therapist, error) {
	return m.mockResolveTherapist(ctx, therapistUUID)
}

func mockTherapistUser() *auth.User {
	return &auth.User{
		ID:    1,
		UUID:  uuid.New(),
		Email: "therapist@clinic.com",
		Role:  auth.TherapistRole,
	}
}

func mockAssistantUser() *auth.User {
	return &auth.User{
		ID:    2,
		UUID:  uuid.New(),
		Email: "assistant@clinic.com",
		Role:  auth.AssistantRole,
	}
}

func mockAuthorizerFor(user *auth.User) mockAuthorizer {
	return mockAuthorizer{
		mockValidateToken: func(ctx context.Context, token string) (*auth.User, error) {
			return user, nil
		},
		mockGetAuthenticatedUser: func(ctx context.Context) (auth.User, error) {
			return *user, nil
		},
	}
}

func resolverWith(patient *directory.Patient, therapist *directory.Therapist) mockResolver {
	return mockResolver{
		mockResolvePatient: func(ctx context.Context, patientUUID uuid.UUID) (*directory.Patient, error) {
			return patient, nil
		},
		mockResolveTherapist: func(ctx context.Context, therapistUUID uuid.UUID) (*directory.Therapist, error) {
			return therapist, nil
		},
	}
}

func mockPatient() *directory.Patient {
	return &directory.Patient{ID: 1, UUID: uuid.New(), Name: "Alice Doe", Email: "alice@clinic.com"}
}

func mockTherapist() *directory.Therapist {
	return &directory.Therapist{ID: 1, UUID: uuid.New(), UserID: 1, Name: "John Doe", Email: "therapist@clinic.com", Specialty: "Speech Therapy"}
}

var appointmentRowColumns = []string{"id", "uuid", "therapist_id", "therapist_name", "patient_id", "patient_name", "date_time", "duration_minutes", "type", "status", "notes", "session_notes", "cancellation_reason", "cancelled_by", "cancellation_notes", "created_at", "confirmed_at", "started_at", "completed_at", "cancelled_at"}

func appointmentRow(rows *sqlmock.Rows, appointmentUUID uuid.UUID, dateTime time.Time, duration int32, status string) *sqlmock.Rows {
	return rows.AddRow(1, appointmentUUID, 1, "John Doe", 1, "Alice Doe", dateTime, duration, "session", status, nil, nil, nil, nil, nil, dateTime.Add(-24*time.Hour), nil, nil, nil, nil)
}

func withFindAppointmentResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findAppointmentByUUIDQuery)).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withFindAppointmentError() mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findAppointmentByUUIDQuery)).WithArgs(sqlmock.AnyArg()).WillReturnError(sql.ErrConnDone)
	}
}

func withListAppointmentsResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(listAppointmentsBaseQuery)).WillReturnRows(rows)
	}
}

func withListAppointmentsError() mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(listAppointmentsBaseQuery)).WillReturnError(sql.ErrConnDone)
	}
}

func withInsertAppointmentCommitted(lockedRows *sqlmock.Rows, result driver.Result) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectBegin()
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(lockActiveAppointmentsByDayQuery)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnRows(lockedRows)
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(insertAppointmentQuery)).WillReturnResult(result)
		dbConn.SQLMock.ExpectCommit()
	}
}

func withInsertAppointmentConflict(lockedRows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectBegin()
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(lockActiveAppointmentsByDayQuery)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnRows(lockedRows)
		dbConn.SQLMock.ExpectRollback()
	}
}

func withUpdateAppointmentStatusResult(result driver.Result) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(updateAppointmentStatusQuery)).WillReturnResult(result)
	}
}

func withUpdateAppointmentStatusExpectingPrior(prior AppointmentStatus, result driver.Result) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(updateAppointmentStatusQuery)).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), string(prior)).
			WillReturnResult(result)
	}
}

func withDeleteAppointmentResult(result driver.Result) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(deleteAppointmentQuery)).WithArgs(sqlmock.AnyArg()).WillReturnResult(result)
	}
}

func serveRequest(t *testing.T, dbConn mock.Connection, mockAuth mockAuthorizer, resolver mockResolver, tokens *auth.Tokens, request *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	Setup(router, logger, mockAuth, dbConn, resolver)
	token := ""
	if tokens != nil {
		token = fmt.Sprintf("Bearer %s", tokens.AccessToken)
	}
	request.Header.Add("Authorization", token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestGetDaySchedule(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		resolver      mockResolver
		therapistUUID string
		date          string
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should get the day schedule with a booked slot",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(mockPatient(), therapist),
				dbMockOptions: []mock.DBResultOption{
					withListAppointmentsResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), uuid.New(), time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
				},
				therapistUUID: therapist.UUID.String(),
				date:          "2026/03/10",
			},
			want: http.StatusOK,
		},
		{
			name: "should get the day schedule of an empty day",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(mockPatient(), therapist),
				dbMockOptions: []mock.DBResultOption{
					withListAppointmentsResult(sqlmock.NewRows(appointmentRowColumns)),
				},
				therapistUUID: therapist.UUID.String(),
				date:          "2026/03/10",
			},
			want: http.StatusOK,
		},
		{
			name: "should not get the day schedule because the therapist UUID is malformed",
			args: args{
				dbConn:        mock.MustCreateConnectionMock(),
				resolver:      resolverWith(mockPatient(), therapist),
				therapistUUID: "not-a-uuid",
				date:          "2026/03/10",
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not get the day schedule because the date parameters are wrong",
			args: args{
				dbConn:        mock.MustCreateConnectionMock(),
				resolver:      resolverWith(mockPatient(), therapist),
				therapistUUID: therapist.UUID.String(),
				date:          "2026/AA/10",
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not get the day schedule because no therapist with the given UUID was found",
			args: args{
				dbConn:        mock.MustCreateConnectionMock(),
				resolver:      resolverWith(mockPatient(), nil),
				therapistUUID: therapist.UUID.String(),
				date:          "2026/03/10",
			},
			want: http.StatusNotFound,
		},
		{
			name: "should not get the day schedule due to a database error while listing the appointments",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(mockPatient(), therapist),
				dbMockOptions: []mock.DBResultOption{
					withListAppointmentsError(),
				},
				therapistUUID: therapist.UUID.String(),
				date:          "2026/03/10",
			},
			want: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(mockAssistantUser())
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *mockAssistantUser())
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest("GET", fmt.Sprintf("/api/v1/schedule/%s/%s", tt.args.therapistUUID, tt.args.date), nil)
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, tt.args.resolver, tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				var slots []TimeSlot
				if err := json.NewDecoder(recorder.Body).Decode(&slots); err != nil {
					t.Fatalf("could not decode the slot grid: %v", err)
				}
				if len(slots) != 21 {
					t.Errorf("len(slots) = %d, want 21", len(slots))
				}
			}
		})
	}
}

func TestGetMonthCalendar(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		resolver      mockResolver
		therapistUUID string
		year          string
		month         string
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should get the month calendar",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(mockPatient(), therapist),
				dbMockOptions: []mock.DBResultOption{
					withListAppointmentsResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), uuid.New(), time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
				},
				therapistUUID: therapist.UUID.String(),
				year:          "2026",
				month:         "03",
			},
			want: http.StatusOK,
		},
		{
			name: "should not get the month calendar because the month is out of range",
			args: args{
				dbConn:        mock.MustCreateConnectionMock(),
				resolver:      resolverWith(mockPatient(), therapist),
				therapistUUID: therapist.UUID.String(),
				year:          "2026",
				month:         "13",
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not get the month calendar because the year is not a number",
			args: args{
				dbConn:        mock.MustCreateConnectionMock(),
				resolver:      resolverWith(mockPatient(), therapist),
				therapistUUID: therapist.UUID.String(),
				year:          "AAAA",
				month:         "03",
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not get the month calendar because no therapist with the given UUID was found",
			args: args{
				dbConn:        mock.MustCreateConnectionMock(),
				resolver:      resolverWith(mockPatient(), nil),
				therapistUUID: therapist.UUID.String(),
				year:          "2026",
				month:         "03",
			},
			want: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(mockAssistantUser())
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *mockAssistantUser())
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest("GET", fmt.Sprintf("/api/v1/schedule/%s/%s/%s", tt.args.therapistUUID, tt.args.year, tt.args.month), nil)
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, tt.args.resolver, tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				var days []CalendarDay
				if err := json.NewDecoder(recorder.Body).Decode(&days); err != nil {
					t.Fatalf("could not decode the calendar grid: %v", err)
				}
				if len(days) != 42 {
					t.Errorf("len(days) = %d, want 42", len(days))
				}
			}
		})
	}
}

func TestCreateAppointment(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	patient := mockPatient()
	therapist := mockTherapist()
	validRequest := func() *BookingRequest {
		return &BookingRequest{
			PatientUUID:   patient.UUID,
			TherapistUUID: therapist.UUID,
			DateTime:      time.Date(2026, 3, 10, 9, 30, 0, 0, time.Local),
			Duration:      50,
			Type:          TypeSession,
		}
	}
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		resolver      mockResolver
		request       *BookingRequest
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should create the appointment when the interval is free",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(patient, therapist),
				dbMockOptions: []mock.DBResultOption{
					withInsertAppointmentCommitted(sqlmock.NewRows(appointmentRowColumns), sqlmock.NewResult(1, 1)),
				},
				request: validRequest(),
			},
			want: http.StatusCreated,
		},
		{
			name: "should create the appointment when the day holds only non-overlapping appointments",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(patient, therapist),
				dbMockOptions: []mock.DBResultOption{
					withInsertAppointmentCommitted(appointmentRow(sqlmock.NewRows(appointmentRowColumns), uuid.New(), time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local), 50, "scheduled"), sqlmock.NewResult(1, 1)),
				},
				request: validRequest(),
			},
			want: http.StatusCreated,
		},
		{
			name: "should not create the appointment because the interval conflicts with an existing one",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(patient, therapist),
				dbMockOptions: []mock.DBResultOption{
					withInsertAppointmentConflict(appointmentRow(sqlmock.NewRows(appointmentRowColumns), uuid.New(), time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
				},
				request: validRequest(),
			},
			want: http.StatusConflict,
		},
		{
			name: "should not create the appointment because it conflicts with an appointment stored with a legacy status spelling",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(patient, therapist),
				dbMockOptions: []mock.DBResultOption{
					withInsertAppointmentConflict(appointmentRow(sqlmock.NewRows(appointmentRowColumns), uuid.New(), time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "in_progress")),
				},
				request: validRequest(),
			},
			want: http.StatusConflict,
		},
		{
			name: "should not create the appointment because the duration is missing",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(patient, therapist),
				request: func() *BookingRequest {
					request := validRequest()
					request.Duration = 0
					return request
				}(),
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not create the appointment because the patient was not found",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(nil, therapist),
				request:  validRequest(),
			},
			want: http.StatusNotFound,
		},
		{
			name: "should not create the appointment because the therapist was not found",
			args: args{
				dbConn:   mock.MustCreateConnectionMock(),
				resolver: resolverWith(patient, nil),
				request:  validRequest(),
			},
			want: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(mockAssistantUser())
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *mockAssistantUser())
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			body, _ := json.Marshal(tt.args.request)
			req, _ := http.NewRequest("POST", "/api/v1/appointments", bytes.NewBuffer(body))
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, tt.args.resolver, tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if tt.want == http.StatusCreated {
				var appointment Appointment
				if err := json.NewDecoder(recorder.Body).Decode(&appointment); err != nil {
					t.Fatalf("could not decode the created appointment: %v", err)
				}
				if appointment.Status != StatusScheduled {
					t.Errorf("status = %s, want %s", appointment.Status, StatusScheduled)
				}
				if appointment.UUID == uuid.Nil {
					t.Error("the created appointment has no UUID")
				}
			}
		})
	}
}

func TestConfirmAppointment(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	appointmentUUID := uuid.New()
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should confirm a scheduled appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
					withUpdateAppointmentStatusResult(sqlmock.NewResult(0, 1)),
				},
			},
			want: http.StatusOK,
		},
		{
			name: "should not confirm the appointment because it changed underneath the caller",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
					withUpdateAppointmentStatusResult(sqlmock.NewResult(0, 0)),
				},
			},
			want: http.StatusConflict,
		},
		{
			name: "should not confirm an already confirmed appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "confirmed")),
				},
			},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "should not confirm an unknown appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(sqlmock.NewRows(appointmentRowColumns)),
				},
			},
			want: http.StatusNotFound,
		},
		{
			name: "should not confirm the appointment due to a database error",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentError(),
				},
			},
			want: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(mockAssistantUser())
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *mockAssistantUser())
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/appointments/%s/confirm", appointmentUUID), nil)
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, resolverWith(mockPatient(), therapist), tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				var appointment Appointment
				if err := json.NewDecoder(recorder.Body).Decode(&appointment); err != nil {
					t.Fatalf("could not decode the confirmed appointment: %v", err)
				}
				if appointment.Status != StatusConfirmed {
					t.Errorf("status = %s, want %s", appointment.Status, StatusConfirmed)
				}
				if appointment.ConfirmedAt == nil {
					t.Error("ConfirmedAt was not set")
				}
			}
		})
	}
}

func TestCompleteAppointment(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	appointmentUUID := uuid.New()
	sessionNotes := "worked on articulation exercises"
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		user          *auth.User
		request       *CompletionRequest
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should complete an in-progress appointment with session notes",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				user:   mockTherapistUser(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "in-progress")),
					withUpdateAppointmentStatusResult(sqlmock.NewResult(0, 1)),
				},
				request: &CompletionRequest{SessionNotes: &sessionNotes},
			},
			want: http.StatusOK,
		},
		{
			name: "should complete an in-progress appointment without a body",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				user:   mockTherapistUser(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "in-progress")),
					withUpdateAppointmentStatusResult(sqlmock.NewResult(0, 1)),
				},
			},
			want: http.StatusOK,
		},
		{
			name: "should complete an appointment stored with a legacy status spelling",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				user:   mockTherapistUser(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "in_progress")),
					withUpdateAppointmentStatusExpectingPrior(StatusInProgress, sqlmock.NewResult(0, 1)),
				},
			},
			want: http.StatusOK,
		},
		{
			name: "should not complete an appointment that has not started",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				user:   mockTherapistUser(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
				},
			},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "should not complete the appointment because the user is not a therapist",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				user:   mockAssistantUser(),
			},
			want: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(tt.args.user)
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *tt.args.user)
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			var body *bytes.Buffer
			if tt.args.request != nil {
				raw, _ := json.Marshal(tt.args.request)
				body = bytes.NewBuffer(raw)
			} else {
				body = bytes.NewBuffer(nil)
			}
			req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/appointments/%s/complete", appointmentUUID), body)
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, resolverWith(mockPatient(), therapist), tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestCancelAppointment(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	appointmentUUID := uuid.New()
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		request       *CancellationRequest
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should cancel a confirmed appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "confirmed")),
					withUpdateAppointmentStatusResult(sqlmock.NewResult(0, 1)),
				},
				request: &CancellationRequest{Reason: "patient got sick", CancelledBy: CancelledByPatient},
			},
			want: http.StatusOK,
		},
		{
			name: "should not cancel the appointment because the reason is missing",
			args: args{
				dbConn:  mock.MustCreateConnectionMock(),
				request: &CancellationRequest{CancelledBy: CancelledByPatient},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not cancel an already cancelled appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "cancelled")),
				},
				request: &CancellationRequest{Reason: "double booked", CancelledBy: CancelledBySystem},
			},
			want: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(mockAssistantUser())
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *mockAssistantUser())
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			body, _ := json.Marshal(tt.args.request)
			req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/appointments/%s/cancel", appointmentUUID), bytes.NewBuffer(body))
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, resolverWith(mockPatient(), therapist), tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestMarkAppointmentNoShow(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	appointmentUUID := uuid.New()
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		user          *auth.User
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should mark a confirmed appointment as no-show",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				user:   mockTherapistUser(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "confirmed")),
					withUpdateAppointmentStatusResult(sqlmock.NewResult(0, 1)),
				},
			},
			want: http.StatusOK,
		},
		{
			name: "should not mark an in-progress appointment as no-show",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				user:   mockTherapistUser(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "in-progress")),
				},
			},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "should not mark the appointment because the user is not a therapist",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				user:   mockAssistantUser(),
			},
			want: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(tt.args.user)
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *tt.args.user)
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/appointments/%s/no-show", appointmentUUID), nil)
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, resolverWith(mockPatient(), therapist), tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestDeleteAppointment(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	appointmentUUID := uuid.New()
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should delete a scheduled appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
					withDeleteAppointmentResult(sqlmock.NewResult(0, 1)),
				},
			},
			want: http.StatusNoContent,
		},
		{
			name: "should not delete a completed appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "completed")),
				},
			},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "should not delete an unknown appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(sqlmock.NewRows(appointmentRowColumns)),
				},
			},
			want: http.StatusNotFound,
		},
		{
			name: "should not delete the appointment because it was already removed",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
					withDeleteAppointmentResult(sqlmock.NewResult(0, 0)),
				},
			},
			want: http.StatusConflict,
		},
		{
			name: "should not delete an appointment completed by a concurrent request",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
					withDeleteAppointmentResult(sqlmock.NewResult(0, 0)),
				},
			},
			want: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(mockAssistantUser())
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *mockAssistantUser())
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/v1/appointments/%s", appointmentUUID), nil)
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, resolverWith(mockPatient(), therapist), tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestListAppointments(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		query         string
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should list all appointments",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withListAppointmentsResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), uuid.New(), time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
				},
			},
			want: http.StatusOK,
		},
		{
			name: "should list appointments filtered by status with a legacy spelling",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withListAppointmentsResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), uuid.New(), time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "in_progress")),
				},
				query: "?status=in_progress",
			},
			want: http.StatusOK,
		},
		{
			name: "should not list appointments because the status filter is unknown",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				query:  "?status=rescheduled",
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not list appointments because the therapist filter is malformed",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				query:  "?therapist=not-a-uuid",
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not list appointments because the date filter is malformed",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				query:  "?date=10-03-2026",
			},
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(mockAssistantUser())
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *mockAssistantUser())
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest("GET", "/api/v1/appointments"+tt.args.query, nil)
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, resolverWith(mockPatient(), therapist), tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				var appointments []*Appointment
				if err := json.NewDecoder(recorder.Body).Decode(&appointments); err != nil {
					t.Fatalf("could not decode the appointment list: %v", err)
				}
				for _, appointment := range appointments {
					if appointment.Status != NormalizeStatus(appointment.Status) {
						t.Errorf("status %s was not normalized", appointment.Status)
					}
				}
			}
		})
	}
}

func TestGetAppointment(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	therapist := mockTherapist()
	appointmentUUID := uuid.New()
	type args struct {
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		uuidParam     string
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should get the appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(appointmentRow(sqlmock.NewRows(appointmentRowColumns), appointmentUUID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), 50, "scheduled")),
				},
				uuidParam: appointmentUUID.String(),
			},
			want: http.StatusOK,
		},
		{
			name: "should not get an unknown appointment",
			args: args{
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentResult(sqlmock.NewRows(appointmentRowColumns)),
				},
				uuidParam: appointmentUUID.String(),
			},
			want: http.StatusNotFound,
		},
		{
			name: "should not get the appointment because the UUID is malformed",
			args: args{
				dbConn:    mock.MustCreateConnectionMock(),
				uuidParam: "not-a-uuid",
			},
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockAuth := mockAuthorizerFor(mockAssistantUser())
			tokens := auth.MustGenerateTokens(config.PrivateKey(), *mockAssistantUser())
			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest("GET", fmt.Sprintf("/api/v1/appointments/%s", tt.args.uuidParam), nil)
			recorder := serveRequest(t, tt.args.dbConn, mockAuth, resolverWith(mockPatient(), therapist), tokens, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestSchedulingRoutesRequireAuthentication(t *testing.T) {
	dbConn := mock.MustCreateConnectionMock()
	mockAuth := mockAuthorizer{
		mockValidateToken: func(ctx context.Context, token string) (*auth.User, error) {
			return nil, auth.NewUnauthorizedError()
		},
		mockGetAuthenticatedUser: func(ctx context.Context) (auth.User, error) {
			return auth.User{}, auth.NewUnauthorizedError()
		},
	}

	req, _ := http.NewRequest("GET", "/api/v1/appointments", nil)
	recorder := serveRequest(t, dbConn, mockAuth, resolverWith(mockPatient(), mockTherapist()), nil, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, http.StatusUnauthorized)
	}
}
