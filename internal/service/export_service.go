package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/export"
)

type outstandingLister interface {
	ListOutstanding(ctx context.Context) ([]models.OutstandingFee, error)
}

type enrollmentReporter interface {
	ListForReport(ctx context.Context, courseID string) ([]models.EnrollmentReportRow, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders report datasets and stores the resulting files.
type ExportService struct {
	fees        outstandingLister
	enrollments enrollmentReporter
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(fees outstandingLister, enrollments enrollmentReporter, storage fileStorage, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{fees: fees, enrollments: enrollments, storage: storage, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Generate builds the dataset for job, renders it and returns the stored relative path.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (string, error) {
	if job == nil {
		return "", fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return "", err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_%s_%d.%s", job.Type, job.ID, s.now().UTC().Unix(), job.Params.Format)
	return s.storage.Save(filename, payload)
}

// Open returns the stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes export files older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeOutstandingFees:
		rows, err := s.fees.ListOutstanding(ctx)
		if err != nil {
			return export.Dataset{}, "", err
		}
		data := export.Dataset{Headers: []string{"Student ID", "Name", "Level", "Total Due", "Total Paid", "Outstanding", "Status"}}
		for _, row := range rows {
			data.Append(map[string]string{
				"Student ID":  row.StudentID,
				"Name":        row.FullName,
				"Level":       strconv.Itoa(row.Level),
				"Total Due":   export.Money(row.TotalDue),
				"Total Paid":  export.Money(row.TotalPaid),
				"Outstanding": export.Money(row.Outstanding),
				"Status":      string(row.Status),
			})
		}
		return data, "Outstanding Fees", nil
	case models.ReportTypeEnrollments:
		rows, err := s.enrollments.ListForReport(ctx, job.Params.CourseID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		data := export.Dataset{Headers: []string{"Course", "Course Name", "Student ID", "Student", "Email", "Level", "Status", "Enrolled At"}}
		for _, row := range rows {
			data.Append(map[string]string{
				"Course":      row.CourseCode,
				"Course Name": row.CourseName,
				"Student ID":  row.StudentID,
				"Student":     row.StudentName,
				"Email":       row.Email,
				"Level":       strconv.Itoa(row.Level),
				"Status":      string(row.Status),
				"Enrolled At": row.EnrolledAt.UTC().Format("2006-01-02"),
			})
		}
		return data, "Course Enrollments", nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}
