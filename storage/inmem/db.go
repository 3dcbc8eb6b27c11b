// Package inmemdb provides in-memory repository implementations used by
// tests; they honor the same contracts as the mongo-backed ones, including
// the uniqueness and transactional guarantees.
package inmemdb

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/assessment"
	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/email"
	"github.com/darasahq/darasa/core/interview"
	"github.com/darasahq/darasa/core/material"
	"github.com/darasahq/darasa/core/stream"
	"github.com/darasahq/darasa/core/task"
	"github.com/darasahq/darasa/core/track"
	"github.com/darasahq/darasa/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users          map[primitive.ObjectID]*user.User
	tracks         map[primitive.ObjectID]*track.Track
	cohorts        map[primitive.ObjectID]*cohort.Cohort
	applications   map[primitive.ObjectID]*application.Application
	assessments    map[primitive.ObjectID]*assessment.Assessment
	interviews     map[primitive.ObjectID]*interview.Interview
	interviewSlots map[primitive.ObjectID]*interview.InterviewSlot
	materials      map[primitive.ObjectID]*material.Material
	tasks          map[primitive.ObjectID]*task.Task
	submissions    map[primitive.ObjectID]*task.Submission
	streams        map[primitive.ObjectID]*stream.Stream
	emailTemplates map[primitive.ObjectID]*email.EmailTemplate
	emailLogs      map[primitive.ObjectID]*email.EmailLog
}

func NewDB() *DB {
	return &DB{
		users:          make(map[primitive.ObjectID]*user.User),
		tracks:         make(map[primitive.ObjectID]*track.Track),
		cohorts:        make(map[primitive.ObjectID]*cohort.Cohort),
		applications:   make(map[primitive.ObjectID]*application.Application),
		assessments:    make(map[primitive.ObjectID]*assessment.Assessment),
		interviews:     make(map[primitive.ObjectID]*interview.Interview),
		interviewSlots: make(map[primitive.ObjectID]*interview.InterviewSlot),
		materials:      make(map[primitive.ObjectID]*material.Material),
		tasks:          make(map[primitive.ObjectID]*task.Task),
		submissions:    make(map[primitive.ObjectID]*task.Submission),
		streams:        make(map[primitive.ObjectID]*stream.Stream),
		emailTemplates: make(map[primitive.ObjectID]*email.EmailTemplate),
		emailLogs:      make(map[primitive.ObjectID]*email.EmailLog),
	}
}
