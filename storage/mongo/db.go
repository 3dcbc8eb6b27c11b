package mongodb

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/darasahq/darasa/core"
)

// Collection names.
const (
	usersColl          = "users"
	tracksColl         = "tracks"
	cohortsColl        = "cohorts"
	applicationsColl   = "applications"
	assessmentsColl    = "assessments"
	interviewsColl     = "interviews"
	interviewSlotsColl = "interview_slots"
	materialsColl      = "materials"
	tasksColl          = "tasks"
	submissionsColl    = "submissions"
	streamsColl        = "streams"
	emailTemplatesColl = "email_templates"
	emailLogsColl      = "email_logs"
)

// Open connects to the configured deployment and pings it.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return client.Database(conf.Database.Name), nil
}

func Close(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}

// StatusCheck returns nil if it can successfully talk to the database.
func StatusCheck(ctx context.Context, db *mongo.Database) error {
	return db.Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes the repositories rely on; each call is
// idempotent. The unique indexes are correctness constraints, not just
// performance: duplicate applications, assessments, interviews and
// submissions are rejected at the database level.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	sets := map[string][]mongo.IndexModel{
		usersColl: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
			},
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "is_active", Value: 1}},
				Options: options.Index().SetName("idx_users_role_active"),
			},
		},
		tracksColl: {
			{
				Keys:    bson.D{{Key: "track_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_tracks_trackid"),
			},
		},
		cohortsColl: {
			{
				Keys:    bson.D{{Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_cohorts_number"),
			},
			{
				Keys:    bson.D{{Key: "is_currently_active", Value: 1}},
				Options: options.Index().SetName("idx_cohorts_active"),
			},
		},
		applicationsColl: {
			{
				Keys:    bson.D{{Key: "applicant_id", Value: 1}, {Key: "cohort_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_apps_applicant_cohort"),
			},
			{
				Keys:    bson.D{{Key: "cohort_id", Value: 1}, {Key: "track_id", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_apps_cohort_track_status"),
			},
		},
		assessmentsColl: {
			{
				Keys:    bson.D{{Key: "application_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_assessments_application"),
			},
		},
		interviewsColl: {
			{
				Keys:    bson.D{{Key: "application_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_interviews_application"),
			},
			{
				Keys:    bson.D{{Key: "slot_id", Value: 1}},
				Options: options.Index().SetName("idx_interviews_slot"),
			},
		},
		interviewSlotsColl: {
			{
				Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "start_time", Value: 1}},
				Options: options.Index().SetName("idx_slots_active_start"),
			},
		},
		materialsColl: {
			{
				Keys:    bson.D{{Key: "cohort_id", Value: 1}, {Key: "track_id", Value: 1}, {Key: "is_published", Value: 1}},
				Options: options.Index().SetName("idx_materials_cohort_track_pub"),
			},
		},
		tasksColl: {
			{
				Keys:    bson.D{{Key: "cohort_id", Value: 1}, {Key: "track_id", Value: 1}, {Key: "is_published", Value: 1}},
				Options: options.Index().SetName("idx_tasks_cohort_track_pub"),
			},
		},
		submissionsColl: {
			{
				Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "student_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_submissions_task_student"),
			},
			{
				Keys:    bson.D{{Key: "student_id", Value: 1}},
				Options: options.Index().SetName("idx_submissions_student"),
			},
		},
		streamsColl: {
			{
				Keys:    bson.D{{Key: "cohort_id", Value: 1}, {Key: "is_pinned", Value: -1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_streams_cohort_pinned_created"),
			},
		},
		emailTemplatesColl: {
			{
				Keys:    bson.D{{Key: "template_type", Value: 1}, {Key: "is_active", Value: 1}},
				Options: options.Index().SetName("idx_templates_type_active"),
			},
		},
		emailLogsColl: {
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("idx_logs_status_created"),
			},
		},
	}

	var problems []string
	for coll, models := range sets {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func regexEscape(s string) string {
	return regexp.QuoteMeta(s)
}

// isDup reports whether err is a duplicate-key write error (E11000).
func isDup(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

// txnNotSupported matches the errors a standalone (non-replica-set) server
// returns when sessions or transactions are attempted.
func txnNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "transaction") && (strings.Contains(s, "replica set") || strings.Contains(s, "session")) {
		return true
	}
	if strings.Contains(s, "session") && strings.Contains(s, "not supported") {
		return true
	}
	return strings.Contains(s, "illegal operation")
}

// runTxn executes fn inside a multi-document transaction, falling back to a
// plain sequential run on deployments without transaction support (local
// standalone servers). fn must be safe to retry.
func runTxn(ctx context.Context, db *mongo.Database, fn func(ctx context.Context) error) error {
	session, err := db.Client().StartSession()
	if err != nil {
		if txnNotSupported(err) {
			return fn(ctx)
		}
		return errors.Wrap(err, "starting session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && txnNotSupported(err) {
		return fn(ctx)
	}
	return err
}
