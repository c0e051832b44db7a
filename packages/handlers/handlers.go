package handlers

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"uavmonitor/packages/auth"
	"uavmonitor/packages/ingest"
	"uavmonitor/packages/logger"
	"uavmonitor/packages/regions"
	"uavmonitor/packages/uploads"
)

// Handlers — HTTP-слой поверх оркестратора и хранилищ
type Handlers struct {
	flights   *mongo.Collection
	regions   *regions.Store
	uploads   *uploads.Store
	ingestor  *ingest.Ingestor
	auth      *auth.Auth
	log       *logger.Logger
	maxUpload int64
}

func New(
	flights *mongo.Collection,
	regionStore *regions.Store,
	uploadStore *uploads.Store,
	ingestor *ingest.Ingestor,
	a *auth.Auth,
	log *logger.Logger,
	maxUpload int64,
) *Handlers {
	return &Handlers{
		flights:   flights,
		regions:   regionStore,
		uploads:   uploadStore,
		ingestor:  ingestor,
		auth:      a,
		log:       log,
		maxUpload: maxUpload,
	}
}

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/ping", h.healthCheck)
	r.GET("/regions", h.getRegions)
	r.GET("/regions/geo", h.getRegionsGeo)
	r.GET("/flights", h.getFlights)
	r.GET("/flights/date-bounds", h.getDateBounds)
	r.GET("/heatmap", h.getHeatmap)
	r.GET("/export/xlsx", h.exportJournal)
	r.GET("/uploads", h.getUploads)

	r.POST("/upload/xlsx", h.auth.JWTAuth(), h.auth.RequireRealmRole("admin"), h.uploadJournal)
	r.POST("/upload/regions", h.auth.JWTAuth(), h.auth.RequireRealmRole("admin"), h.uploadRegions)
}

func (h *Handlers) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// uploadJournal принимает xlsx-журнал полетов и прогоняет его через
// пайплайн разбора
func (h *Handlers) uploadJournal(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	name := strings.ToLower(file.Filename)
	if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".xls") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only XLSX/XLS files are allowed"})
		return
	}
	if file.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file size exceeds %d MB", h.maxUpload/(1024*1024)),
		})
		return
	}

	uploaded, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer uploaded.Close()

	ctx := c.Request.Context()

	rec, err := h.uploads.Create(ctx, file.Filename, file.Size)
	if err != nil {
		h.log.Error("failed to register upload", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.ingestor.IngestWorkbook(ctx, uploaded, rec.ID.Hex())
	if err != nil {
		h.log.Error("journal upload failed",
			logger.String("filename", file.Filename),
			logger.String("user", uploaderName(c)),
			logger.Error(err))
		if serr := h.uploads.SetStatus(ctx, rec.ID, uploads.StatusFailed, err.Error(), nil); serr != nil {
			h.log.Error("failed to mark upload as failed", logger.Error(serr))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.uploads.SetStatus(ctx, rec.ID, uploads.StatusProcessed,
		"File processed successfully", summary.Sheets); err != nil {
		h.log.Error("failed to mark upload as processed", logger.Error(err))
	}

	h.log.Info("journal uploaded",
		logger.String("filename", file.Filename),
		logger.String("user", uploaderName(c)),
		logger.Int("rows", summary.TotalRows))

	c.JSON(http.StatusCreated, gin.H{
		"file_id":  rec.ID.Hex(),
		"filename": file.Filename,
		"summary":  summary,
	})
}

// uploaderName — имя пользователя из claims для журнала действий
func uploaderName(c *gin.Context) string {
	if name, ok := auth.GetUsername(c); ok {
		return name
	}
	return "unknown"
}

// getUploads возвращает историю загрузок журнала
func (h *Handlers) getUploads(c *gin.Context) {
	list, err := h.uploads.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// uploadRegions принимает шейп-файл границ регионов (zip с .shp и
// .dbf либо отдельные части формы shp/dbf)
func (h *Handlers) uploadRegions(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file size exceeds %d MB", h.maxUpload/(1024*1024)),
		})
		return
	}

	tmpDir, err := os.MkdirTemp("", "regions-upload-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create temp dir"})
		return
	}
	defer os.RemoveAll(tmpDir)

	saved := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, saved); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save uploaded file"})
		return
	}

	shpPath, err := resolveShapefile(saved, tmpDir)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.ingestor.IngestShapefile(c.Request.Context(), shpPath)
	if err != nil {
		if err == regions.ErrRecordShapeMismatch {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("regions upload failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.log.Info("regions uploaded",
		logger.String("filename", file.Filename),
		logger.String("user", uploaderName(c)),
		logger.Int("regions", summary.Regions))

	c.JSON(http.StatusCreated, gin.H{
		"filename": file.Filename,
		"summary":  summary,
	})
}

// resolveShapefile возвращает путь к .shp: zip распаковывается рядом
func resolveShapefile(path, dir string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return path, nil
	case ".zip":
		return extractShapefile(path, dir)
	default:
		return "", fmt.Errorf("expected .shp or .zip, got %q", filepath.Ext(path))
	}
}

func extractShapefile(zipPath, dir string) (string, error) {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("invalid zip archive: %w", err)
	}
	defer archive.Close()

	var shpPath string
	for _, f := range archive.File {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".shp" && ext != ".dbf" && ext != ".shx" && ext != ".prj" {
			continue
		}

		dst := filepath.Join(dir, filepath.Base(f.Name))
		if err := extractFile(f, dst); err != nil {
			return "", err
		}
		if ext == ".shp" {
			shpPath = dst
		}
	}

	if shpPath == "" {
		return "", fmt.Errorf("archive contains no .shp file")
	}
	return shpPath, nil
}

func extractFile(f *zip.File, dst string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read %q from archive: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (h *Handlers) getRegions(c *gin.Context) {
	list, err := h.regions.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) getRegionsGeo(c *gin.Context) {
	features, err := h.regions.GeoFeatures(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, features)
}

// getFlights возвращает журнал полетов, опционально ограниченный
// диапазоном дат (?from=2024-01-01&to=2024-02-01)
func (h *Handlers) getFlights(c *gin.Context) {
	filter := bson.M{}

	dateFilter := bson.M{}
	if from, ok := parseDateParam(c.Query("from")); ok {
		dateFilter["$gte"] = from
	}
	if to, ok := parseDateParam(c.Query("to")); ok {
		dateFilter["$lt"] = to
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	limit := int64(1000)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetLimit(limit)

	cursor, err := h.flights.Find(c.Request.Context(), filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cursor.Close(c.Request.Context())

	flights := []ingest.FlightDocument{}
	if err := cursor.All(c.Request.Context(), &flights); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flights)
}

func parseDateParam(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// getDateBounds возвращает минимальную и максимальную даты полетов
func (h *Handlers) getDateBounds(c *gin.Context) {
	bounds := gin.H{"min_date": nil, "max_date": nil}

	for _, b := range []struct {
		key  string
		sort int
	}{
		{"min_date", 1},
		{"max_date", -1},
	} {
		opts := options.FindOne().
			SetSort(bson.D{{Key: "date", Value: b.sort}}).
			SetProjection(bson.M{"date": 1, "_id": 0})

		var doc struct {
			Date *time.Time `bson:"date"`
		}
		err := h.flights.FindOne(c.Request.Context(), bson.M{"date": bson.M{"$ne": nil}}, opts).Decode(&doc)
		if err == nil && doc.Date != nil {
			bounds[b.key] = doc.Date.Format(time.RFC3339)
		} else if err != nil && err != mongo.ErrNoDocuments {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, bounds)
}

// getHeatmap возвращает облако координат полетов для региона
func (h *Handlers) getHeatmap(c *gin.Context) {
	region, err := url.QueryUnescape(c.Query("region"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to decode region parameter"})
		return
	}
	if region == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "region parameter is required"})
		return
	}

	filter := bson.M{
		"$or": []bson.M{
			{"takeoff_region": region},
			{"landing_region": region},
			{"city": region},
		},
		"coordinates": bson.M{"$ne": nil},
	}
	opts := options.Find().SetProjection(bson.M{"coordinates": 1, "_id": 0})

	cursor, err := h.flights.Find(c.Request.Context(), filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cursor.Close(c.Request.Context())

	var docs []struct {
		Coordinates *struct {
			Lat float64 `bson:"lat"`
			Lon float64 `bson:"lon"`
		} `bson:"coordinates"`
	}
	if err := cursor.All(c.Request.Context(), &docs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	points := make([]map[string]float64, 0, len(docs))
	for _, doc := range docs {
		if doc.Coordinates == nil {
			continue
		}
		points = append(points, map[string]float64{
			"lat": doc.Coordinates.Lat,
			"lng": doc.Coordinates.Lon,
		})
	}
	c.JSON(http.StatusOK, points)
}

// exportJournal выгружает журнал полетов в xlsx
func (h *Handlers) exportJournal(c *gin.Context) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := h.flights.Find(c.Request.Context(), bson.M{}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cursor.Close(c.Request.Context())

	var flights []ingest.FlightDocument
	if err := cursor.All(c.Request.Context(), &flights); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Журнал полетов")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	header := sheet.AddRow()
	for _, title := range []string{
		"SID", "Дата", "Тип БВС", "Центр ЕС ОрВД",
		"Регион вылета", "Регион посадки",
		"Длительность, мин", "Дистанция, км", "Средняя скорость, км/ч",
		"Оператор", "Категория оператора",
	} {
		header.AddCell().SetString(title)
	}

	for _, f := range flights {
		row := sheet.AddRow()
		row.AddCell().SetString(f.SID)
		row.AddCell().SetString(formatTime(f.Date))
		row.AddCell().SetString(f.UAVType)
		row.AddCell().SetString(f.City)
		row.AddCell().SetString(f.TakeoffRegion)
		row.AddCell().SetString(f.LandingRegion)
		row.AddCell().SetString(formatInt(f.DurationMinutes))
		row.AddCell().SetString(formatFloat(f.DistanceKM))
		row.AddCell().SetString(formatFloat(f.AverageSpeedKMH))
		row.AddCell().SetString(f.Operator)
		row.AddCell().SetString(string(f.Party.Category))
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="flight-journal.xlsx"`)
	if err := file.Write(c.Writer); err != nil {
		h.log.Error("journal export failed", logger.Error(err))
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
