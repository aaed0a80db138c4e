package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/to404hanga/pkg404/gotools/transform"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/archive"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/storage"
	"gorm.io/gorm"
)

type AssignmentService interface {
	Create(ctx context.Context, param *model.CreateAssignmentParam) (*entity.Assignment, error)
	// Update 已有提交时不允许修改提交方式
	Update(ctx context.Context, param *model.UpdateAssignmentParam) (*entity.Assignment, error)
	Get(ctx context.Context, operator entity.Operator, assignmentID string) (*model.Assignment, error)
	List(ctx context.Context, operator entity.Operator) (*model.ListAssignmentsResponse, error)
	SetActive(ctx context.Context, param *model.SetAssignmentActiveParam) error
	// UploadTeacherFiles 解包教师文件, 覆盖原有目录
	UploadTeacherFiles(ctx context.Context, param *model.UploadTeacherFilesParam) error
	// ListSubmissions 作业下全部未删除的提交
	ListSubmissions(ctx context.Context, operator entity.Operator, assignmentID string) (*model.ListSubmissionsResponse, error)
}

type AssignmentServiceImpl struct {
	db          *gorm.DB
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	groups      repository.GroupRepository
	reports     repository.ReportRepository
	archiver    archive.Service
	root        string
	cache       LeaderboardCache
	log         loggerv2.Logger
}

var _ AssignmentService = (*AssignmentServiceImpl)(nil)

func NewAssignmentService(db *gorm.DB, archiver archive.Service, store storage.Storage, cache LeaderboardCache, log loggerv2.Logger) AssignmentService {
	return &AssignmentServiceImpl{
		db:          db,
		assignments: repository.NewAssignmentRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		groups:      repository.NewGroupRepository(db),
		reports:     repository.NewReportRepository(db),
		archiver:    archiver,
		root:        store.Root(),
		cache:       cache,
		log:         log,
	}
}

func teacherOnly(op entity.Operator) error {
	if !op.IsTeacher() {
		return errs.PolicyViolation(errs.ReasonAccessDenied, "Only teachers can manage assignments")
	}
	return nil
}

func (s *AssignmentServiceImpl) Create(ctx context.Context, param *model.CreateAssignmentParam) (*entity.Assignment, error) {
	if err := teacherOnly(param.Operator); err != nil {
		return nil, err
	}
	opt, err := s.assignments.FindByID(ctx, param.ID)
	if err != nil {
		return nil, err
	}
	if opt.IsSome() {
		return nil, errs.ValidationError(errs.ReasonInvalidInput, fmt.Sprintf("assignment %s already exists", param.ID))
	}
	lbType := param.LeaderboardType
	if lbType == "" {
		lbType = entity.LeaderboardTestsPassed
	}
	a := &entity.Assignment{
		ID:                            param.ID,
		Name:                          param.Name,
		OwnerID:                       param.Operator.StudentID,
		PackageName:                   param.PackageName,
		Language:                      param.Language,
		SubmissionMethod:              param.SubmissionMethod,
		DueDate:                       param.DueDate,
		CooloffPeriod:                 param.CooloffPeriod,
		AcceptsStudentTests:           param.AcceptsStudentTests,
		CalculateStudentTestsCoverage: param.CalculateStudentTestsCoverage,
		MandatoryTestsSuffix:          param.MandatoryTestsSuffix,
		ShowLeaderBoard:               param.ShowLeaderBoard,
		LeaderboardType:               lbType,
	}
	if err = s.assignments.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "assignment created", logger.String("assignment_id", a.ID))
	return a, nil
}

func (s *AssignmentServiceImpl) Update(ctx context.Context, param *model.UpdateAssignmentParam) (*entity.Assignment, error) {
	if err := teacherOnly(param.Operator); err != nil {
		return nil, err
	}
	var a *entity.Assignment
	err := repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		assignments := s.assignments.WithTx(tx)
		opt, err := assignments.FindByID(ctx, param.ID)
		if err != nil {
			return err
		}
		if a, err = errs.Found(opt, "assignment", param.ID); err != nil {
			return err
		}
		if param.SubmissionMethod != nil && *param.SubmissionMethod != a.SubmissionMethod {
			cnt, err := s.submissions.WithTx(tx).CountActive(ctx, a.ID)
			if err != nil {
				return err
			}
			if cnt > 0 {
				return errs.PolicyViolation(errs.ReasonImmutableField,
					"The submission method cannot be changed once the assignment has submissions")
			}
			a.SubmissionMethod = *param.SubmissionMethod
		}
		applyAssignmentUpdate(a, param)
		return assignments.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, a.ID); err != nil {
		s.log.WarnContext(ctx, "invalidate leaderboard failed", logger.String("assignment_id", a.ID), logger.Error(err))
	}
	return a, nil
}

func applyAssignmentUpdate(a *entity.Assignment, param *model.UpdateAssignmentParam) {
	if param.Name != nil {
		a.Name = *param.Name
	}
	if param.PackageName != nil {
		a.PackageName = *param.PackageName
	}
	if param.Language != nil {
		a.Language = *param.Language
	}
	if param.Archived != nil {
		a.Archived = *param.Archived
	}
	if param.DueDate != nil {
		a.DueDate = param.DueDate
	}
	if param.CooloffPeriod != nil {
		a.CooloffPeriod = param.CooloffPeriod
	}
	if param.AcceptsStudentTests != nil {
		a.AcceptsStudentTests = *param.AcceptsStudentTests
	}
	if param.CalculateStudentTestsCoverage != nil {
		a.CalculateStudentTestsCoverage = *param.CalculateStudentTestsCoverage
	}
	if param.MandatoryTestsSuffix != nil {
		a.MandatoryTestsSuffix = param.MandatoryTestsSuffix
	}
	if param.ShowLeaderBoard != nil {
		a.ShowLeaderBoard = *param.ShowLeaderBoard
	}
	if param.LeaderboardType != nil {
		a.LeaderboardType = *param.LeaderboardType
	}
}

func (s *AssignmentServiceImpl) Get(ctx context.Context, operator entity.Operator, assignmentID string) (*model.Assignment, error) {
	opt, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	a, err := errs.Found(opt, "assignment", assignmentID)
	if err != nil {
		return nil, err
	}
	out := &model.Assignment{Assignment: *a}
	if !operator.IsTeacher() {
		if !a.Active {
			return nil, errs.NotFound("assignment", assignmentID)
		}
		return out, nil
	}
	if out.SubmissionCount, err = s.submissions.CountActive(ctx, a.ID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AssignmentServiceImpl) List(ctx context.Context, operator entity.Operator) (*model.ListAssignmentsResponse, error) {
	if err := teacherOnly(operator); err != nil {
		return nil, err
	}
	list, err := s.assignments.ListByOwner(ctx, operator.StudentID)
	if err != nil {
		return nil, err
	}
	return &model.ListAssignmentsResponse{List: list, Total: len(list)}, nil
}

func (s *AssignmentServiceImpl) SetActive(ctx context.Context, param *model.SetAssignmentActiveParam) error {
	if err := teacherOnly(param.Operator); err != nil {
		return err
	}
	opt, err := s.assignments.FindByID(ctx, param.ID)
	if err != nil {
		return err
	}
	a, err := errs.Found(opt, "assignment", param.ID)
	if err != nil {
		return err
	}
	a.Active = *param.Active
	if err = s.assignments.Save(ctx, a); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "assignment active changed", logger.String("assignment_id", a.ID), logger.Bool("active", a.Active))
	return nil
}

func (s *AssignmentServiceImpl) UploadTeacherFiles(ctx context.Context, param *model.UploadTeacherFilesParam) error {
	if err := teacherOnly(param.Operator); err != nil {
		return err
	}
	opt, err := s.assignments.FindByID(ctx, param.AssignmentID)
	if err != nil {
		return err
	}
	if _, err = errs.Found(opt, "assignment", param.AssignmentID); err != nil {
		return err
	}

	target := storage.TeacherFolder(s.root, param.AssignmentID)
	staging := target + ".staging-" + uuid.NewString()
	defer func() {
		if err := fsutil.RemoveAll(staging); err != nil {
			s.log.WarnContext(ctx, "remove staging folder failed", logger.String("folder", staging), logger.Error(err))
		}
	}()
	if err = s.archiver.Unpack(ctx, param.ArchivePath, staging); err != nil {
		return errs.ArchiveFailure("unpack teacher files failed", err)
	}

	src := staging
	// 压缩包只包含一个顶层目录 (src 除外) 时以该目录为根
	if entries, err := os.ReadDir(staging); err == nil && len(entries) == 1 && entries[0].IsDir() && entries[0].Name() != "src" {
		src = filepath.Join(staging, entries[0].Name())
	}
	if err = fsutil.RemoveAll(target); err != nil {
		return errs.StorageFailure("remove previous teacher files failed", err)
	}
	if err = os.Rename(src, target); err != nil {
		return errs.StorageFailure("move teacher files failed", err)
	}
	s.log.InfoContext(ctx, "teacher files uploaded", logger.String("assignment_id", param.AssignmentID))
	return nil
}

func (s *AssignmentServiceImpl) ListSubmissions(ctx context.Context, operator entity.Operator, assignmentID string) (*model.ListSubmissionsResponse, error) {
	if err := teacherOnly(operator); err != nil {
		return nil, err
	}
	opt, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	a, err := errs.Found(opt, "assignment", assignmentID)
	if err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	ids := transform.SliceFromSlice(subs, func(_ int, sub entity.Submission) uint64 {
		return sub.ID
	})
	groupIDs := transform.SliceFromSlice(subs, func(_ int, sub entity.Submission) uint64 {
		return sub.GroupID
	})
	reports, err := s.reports.FindBySubmissions(ctx, ids)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.FindByIDs(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	list := make([]model.Submission, 0, len(subs))
	for i := range subs {
		list = append(list, toSubmission(&subs[i], groups[subs[i].GroupID], a, reports[subs[i].ID]))
	}
	return &model.ListSubmissionsResponse{List: list, Total: len(list)}, nil
}
