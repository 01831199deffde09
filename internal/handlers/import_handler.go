package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"catalog-service/internal/events"
	"catalog-service/internal/importer"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

type ImportHandler struct {
	catalogs  map[models.EntityKind]*repository.CatalogRepository
	reviews   *repository.ReviewsRepository
	users     *repository.UsersRepository
	publisher *events.Publisher
	logger    *logrus.Logger
}

func NewImportHandler(db *gorm.DB, redisClient *redis.Client, reviews *repository.ReviewsRepository, users *repository.UsersRepository, publisher *events.Publisher, logger *logrus.Logger) *ImportHandler {
	catalogs := make(map[models.EntityKind]*repository.CatalogRepository, len(models.EntityKinds()))
	for _, kind := range models.EntityKinds() {
		catalogs[kind] = repository.NewCatalogRepository(db, redisClient, importer.AdapterFor(kind).Spec())
	}
	return &ImportHandler{
		catalogs:  catalogs,
		reviews:   reviews,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// parseKindParam resolves the :kind path parameter to a catalog kind.
func parseKindParam(c *gin.Context) (models.EntityKind, bool) {
	kind, err := models.ParseEntityKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_KIND",
				Message: err.Error(),
			},
		})
		return "", false
	}
	return kind, true
}

// sheetNames maps each kind to its template sheet name
var sheetNames = map[models.EntityKind]string{
	models.EntityKindArticle:       "Articles",
	models.EntityKindProduct:       "Products",
	models.EntityKindActivity:      "Activities",
	models.EntityKindTravelProgram: "Travel Programs",
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/catalog/:kind/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	kind, ok := parseKindParam(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "json")

	template := models.ImportTemplateFor(kind)

	switch format {
	case "csv":
		h.generateCSVTemplate(c, kind, template)
	case "xlsx":
		h.generateXLSXTemplate(c, kind, template)
	default:
		// Return JSON template definition
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, kind models.EntityKind, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.csv", kind))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Write header row only
	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, kind models.EntityKind, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := sheetNames[kind]
	f.SetSheetName("Sheet1", sheetName)

	// Style for header row
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Style for required columns
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Write header row only (no sample data)
	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		// Set column width
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Add Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", fmt.Sprintf("%s Import Instructions", sheetName))

	f.SetCellValue("Instructions", "A3", "MATCHING:")
	f.SetCellValue("Instructions", "A4", "Existing records are matched by refId when present, otherwise by the name/title column.")
	f.SetCellValue("Instructions", "A5", "Rows with the same refId or name/title are merged: the first row provides the fields, later rows may add reviews.")

	f.SetCellValue("Instructions", "A7", "REVIEWS:")
	f.SetCellValue("Instructions", "A8", "A row carries a review when BOTH reviewComment and reviewUserEmail are filled in.")
	f.SetCellValue("Instructions", "A9", "Reviewer accounts are created automatically from reviewUserEmail when they do not exist yet.")

	f.SetCellValue("Instructions", "A11", "Column Definitions:")
	f.SetCellValue("Instructions", "A12", "Column")
	f.SetCellValue("Instructions", "B12", "Description")
	f.SetCellValue("Instructions", "C12", "Required")
	f.SetCellValue("Instructions", "D12", "Type")
	f.SetCellValue("Instructions", "E12", "Example")

	for i, col := range template.Columns {
		row := i + 13
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.xlsx", kind))

	f.Write(c.Writer)
}

// ImportEntities imports catalog entities (with optional embedded reviews) from a CSV or Excel file
// POST /api/v1/catalog/:kind/import
func (h *ImportHandler) ImportEntities(c *gin.Context) {
	kind, ok := parseKindParam(c)
	if !ok {
		return
	}

	tenantID, _ := c.Get("tenant_id")
	startTime := time.Now()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return
	}
	defer file.Close()

	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	// Determine file format
	filename := header.Filename
	var format models.ImportFormat
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		format = models.ImportFormatCSV
	} else if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		format = models.ImportFormatXLSX
	} else {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return
	}

	// Stage the upload as a temp artifact. The engine removes it when the run
	// finishes; the deferred remove covers paths that never reach the engine.
	artifactPath, err := h.stageUpload(file, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to store uploaded file",
			},
		})
		return
	}
	defer os.Remove(artifactPath)

	// Parse file
	var rows []importer.Row
	var parseErr error

	if format == models.ImportFormatCSV {
		rows, parseErr = h.parseCSVFile(artifactPath)
	} else {
		rows, parseErr = h.parseXLSXFile(artifactPath, kind)
	}

	if parseErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: parseErr.Error(),
			},
		})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_FILE",
				Message: "The file contains no data rows",
			},
		})
		return
	}

	engine := importer.NewEngine(
		importer.AdapterFor(kind),
		h.catalogs[kind],
		h.reviews,
		h.users,
		h.logger,
	)

	if validateOnly {
		result := engine.Validate(rows)
		result.ProcessingMs = time.Since(startTime).Milliseconds()
		c.JSON(http.StatusOK, result)
		return
	}

	result, runErr := engine.Run(c.Request.Context(), tenantID.(string), rows, artifactPath)
	result.ProcessingMs = time.Since(startTime).Milliseconds()

	if runErr != nil {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishImportCompleted(c.Request.Context(), tenantID.(string), kind, result)
	}

	c.JSON(http.StatusOK, result)
}

// stageUpload copies the uploaded file to a temp artifact on disk
func (h *ImportHandler) stageUpload(file io.Reader, format models.ImportFormat) (string, error) {
	tmp, err := os.CreateTemp("", "catalog-import-*."+string(format))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// parseCSVFile parses a CSV artifact into rows
func (h *ImportHandler) parseCSVFile(path string) ([]importer.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return h.parseCSV(f)
}

// parseCSV parses CSV content into rows
func (h *ImportHandler) parseCSV(file io.Reader) ([]importer.Row, error) {
	reader := csv.NewReader(file)

	// Read header
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Normalize headers
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		// Remove required marker if present
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []importer.Row
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(importer.Row)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row.SetNumber(lineNum + 1) // Track row number for error reporting
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

// parseXLSXFile parses an Excel artifact into rows
func (h *ImportHandler) parseXLSXFile(path string, kind models.EntityKind) ([]importer.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	// Prefer the kind's template sheet if it exists
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, sheetNames[kind]) {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	// First row is header
	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []importer.Row
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(importer.Row)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row.SetNumber(rowIdx + 2) // Track row number (1-indexed, +1 for header)
		rows = append(rows, row)
	}

	return rows, nil
}
