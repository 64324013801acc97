package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
	"github.com/azinedine/school-manager-api/pkg/export"
	"github.com/azinedine/school-manager-api/pkg/isoweek"
)

// Export formats supported by the weekly sheet endpoint.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ExportFile couples rendered bytes with delivery metadata.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders the weekly review sheet of a class.
type ExportService struct {
	reviews  reviewRepo
	classes  classReader
	students studentReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(reviews reviewRepo, classes classReader, students studentReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reviews:  reviews,
		classes:  classes,
		students: students,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

var weeklySheetHeaders = []string{"Student", "Number", "Notebook", "Lesson", "Homework", "Score", "Observation", "Notes"}

// WeeklySheet renders one class week as CSV or PDF. Students without a review
// appear with empty cells so the sheet always covers the full roster.
func (s *ExportService) WeeklySheet(ctx context.Context, classID, teacherID string, year, week int, format string) (*ExportFile, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if year < 2020 || year > 2100 || week < 1 || week > 53 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be 2020-2100 and week 1-53")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if class.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another teacher")
	}

	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	target := isoweek.Week{Year: year, Number: week, StartDate: isoweek.StartDate(year, week)}
	byStudent, err := s.reviews.FetchForWeeks(ctx, classID, target)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch weekly reviews")
	}

	dataset := export.Dataset{Headers: weeklySheetHeaders}
	for _, student := range students {
		row := map[string]string{
			"Student": fmt.Sprintf("%s %s", student.LastName, student.FirstName),
		}
		if student.StudentNumber != nil {
			row["Number"] = *student.StudentNumber
		}
		for _, review := range byStudent[student.ID] {
			if !review.MatchesWeek(target) {
				continue
			}
			row["Notebook"] = yesNo(review.NotebookChecked)
			row["Lesson"] = yesNo(review.LessonWritten)
			row["Homework"] = yesNo(review.HomeworkDone)
			if review.Score != nil {
				row["Score"] = strconv.FormatFloat(*review.Score, 'f', -1, 64)
			}
			row["Observation"] = string(review.ObservationType)
			if review.ObservationNotes != nil {
				row["Notes"] = *review.ObservationNotes
			}
			break
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	base := fmt.Sprintf("weekly-sheet-%s-%d-W%02d", class.Name, year, week)
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{FileName: base + ".csv", ContentType: "text/csv", Content: content}, nil
	default:
		title := fmt.Sprintf("%s - Week %d, %d", class.Name, week, year)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{FileName: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
