package docrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/subject"
)

const subjectsCollection = "subjects"

type subjectRepository struct {
	store core.DocumentStore
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(store core.DocumentStore) *subjectRepository {
	return &subjectRepository{store: store}
}

func (repo subjectRepository) unboil(id string, s subject.Subject) subject.Subject {
	if s.ID == "" {
		s.ID = id
	}
	if s.AssignedTeachers == nil {
		s.AssignedTeachers = []string{}
	}
	return s
}

func (repo subjectRepository) QuerySubjects(ctx context.Context) ([]subject.Subject, error) {
	var docs map[string]subject.Subject
	if err := get(ctx, repo.store, subjectsCollection, &docs); err != nil {
		if errors.Cause(err) == core.ErrDocumentNotFound {
			return []subject.Subject{}, nil
		}
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]subject.Subject, 0, len(docs))
	for id, s := range docs {
		subjects = append(subjects, repo.unboil(id, s))
	}
	return subjects, nil
}

func (repo subjectRepository) GetSubject(ctx context.Context, id string) (subject.Subject, error) {
	if !validKeys(id) {
		return subject.Subject{}, subject.ErrNotFound
	}
	var s subject.Subject
	if err := get(ctx, repo.store, path(subjectsCollection, id), &s); err != nil {
		return subject.Subject{}, trapNotFoundErr(err, subject.ErrNotFound, "getting subject")
	}
	return repo.unboil(id, s), nil
}

func (repo subjectRepository) SaveSubject(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	if !validKeys(s.ID) {
		return subject.Subject{}, core.NewValidationError(nil, core.FieldError{Field: "code", Error: "invalid subject code"})
	}
	if err := repo.store.Set(ctx, path(subjectsCollection, s.ID), s); err != nil {
		return subject.Subject{}, errors.Wrap(err, "saving subject")
	}
	return repo.unboil(s.ID, s), nil
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, id string) error {
	if !validKeys(id) {
		return subject.ErrNotFound
	}
	return errors.Wrap(repo.store.Remove(ctx, path(subjectsCollection, id)), "deleting subject")
}
