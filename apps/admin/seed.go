package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/subject"
)

type (
	seedStudent struct {
		ID       string `yaml:"id" json:"id"`
		RollNo   string `yaml:"rollNo" json:"rollNo"`
		Name     string `yaml:"name" json:"name"`
		SerialNo int    `yaml:"serialNo" json:"serialNo"`
	}

	seedTeacher struct {
		Username string `yaml:"username"`
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	}

	seedSubject struct {
		Name        string   `yaml:"name"`
		Code        string   `yaml:"code"`
		Description string   `yaml:"description"`
		Teachers    []string `yaml:"teachers"` // usernames
	}

	// seedData is the shape of a seed file:
	//
	//	classes:
	//	  CS101:
	//	    - {id: s1, rollNo: "1", name: Alice, serialNo: 1}
	//	teachers:
	//	  - {username: jdoe, name: John Doe, email: jdoe@school.test, password: s3cure-pass}
	//	subjects:
	//	  - {name: Algorithms, code: CS101, teachers: [jdoe]}
	//	settings:
	//	  attendanceCutoffTime: "09:30"
	seedData struct {
		Classes  map[string][]seedStudent `yaml:"classes"`
		Teachers []seedTeacher            `yaml:"teachers"`
		Subjects []seedSubject            `yaml:"subjects"`
		Settings map[string]interface{}   `yaml:"settings"`
	}
)

func parseSeed(data []byte) (seedData, error) {
	var sd seedData
	if err := yaml.Unmarshal(data, &sd); err != nil {
		return sd, errors.Wrap(err, "parsing seed file")
	}
	return sd, nil
}

func (cli *commandLine) seed(file string) error {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "reading seed file")
	}
	sd, err := parseSeed(data)
	if err != nil {
		return err
	}
	return cli.load(context.Background(), sd)
}

func (cli *commandLine) load(ctx context.Context, sd seedData) error {
	for classID, students := range sd.Classes {
		if !core.ValidDocumentKey(classID) {
			return errors.Errorf("invalid class id %q", classID)
		}
		if err := cli.store.Set(ctx, roster.ClassPath(classID), students); err != nil {
			return errors.Wrapf(err, "seeding class %q", classID)
		}
		fmt.Printf("class %q: %d students\n", classID, len(students))
	}

	teacherIDs := make(map[string]string, len(sd.Teachers))
	for _, t := range sd.Teachers {
		acc, err := cli.accountSvc.AddUser(ctx, account.RoleTeacher, t.Username, t.Email, t.Name, t.Password)
		if err != nil {
			return errors.Wrapf(err, "seeding teacher %q", t.Username)
		}
		teacherIDs[acc.Username] = acc.ID
		fmt.Printf("teacher %q\n", acc.Username)
	}

	for _, s := range sd.Subjects {
		if err := cli.seedSubject(ctx, s, teacherIDs); err != nil {
			return errors.Wrapf(err, "seeding subject %q", s.Code)
		}
	}

	if sd.Settings != nil {
		if err := cli.seedSettings(ctx, sd.Settings); err != nil {
			return errors.Wrap(err, "seeding settings")
		}
	}
	return nil
}

func (cli *commandLine) seedSubject(ctx context.Context, s seedSubject, teacherIDs map[string]string) error {
	ss := subject.SaveSubject{Name: s.Name, Code: s.Code, Description: s.Description, AssignedTeachers: []string{}}
	for _, uname := range s.Teachers {
		id, ok := teacherIDs[core.CleanString(uname, true /* lower */)]
		if !ok {
			acc, err := cli.accountSvc.GetByLogin(ctx, account.RoleTeacher, uname)
			if err != nil {
				return errors.Wrapf(err, "finding teacher %q", uname)
			}
			id = acc.ID
		}
		ss.AssignedTeachers = append(ss.AssignedTeachers, id)
	}
	if err := ss.Validate(cli.validate); err != nil {
		return err
	}

	saved, err := cli.subjectSvc.Create(ctx, ss)
	if _, ok := errors.Cause(err).(*core.ValidationError); ok {
		saved, err = cli.subjectSvc.Update(ctx, subjectID(ss.Code), ss)
	}
	if err != nil {
		return err
	}
	fmt.Printf("subject %q\n", saved.Code)
	return nil
}

func subjectID(code string) string {
	return core.CleanString(code, true /* lower */)
}

// seedSettings applies the given fields over the current settings.
func (cli *commandLine) seedSettings(ctx context.Context, fields map[string]interface{}) error {
	s, err := cli.settingsSvc.Get(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, &s); err != nil {
		return err
	}
	if err = s.Validate(cli.validate); err != nil {
		return err
	}
	_, err = cli.settingsSvc.Save(ctx, s)
	return err
}
