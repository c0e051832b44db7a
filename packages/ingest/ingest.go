package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/paulmach/orb"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	shp "github.com/jonas-p/go-shp"

	"uavmonitor/packages/classifier"
	"uavmonitor/packages/geosearch"
	"uavmonitor/packages/logger"
	"uavmonitor/packages/parsing/flight"
	"uavmonitor/packages/regions"
)

// FlightDocument — запись о полете в том виде, в котором она уходит в
// MongoDB: разобранная запись плюс классификация оператора и
// привязка к регионам
type FlightDocument struct {
	flight.Record `bson:",inline"`

	Party         classifier.Classification `bson:"party" json:"party"`
	TakeoffRegion string                    `bson:"takeoff_region,omitempty" json:"takeoff_region"`
	LandingRegion string                    `bson:"landing_region,omitempty" json:"landing_region"`
	Sheet         string                    `bson:"sheet" json:"sheet"`
	RowNumber     int                       `bson:"row" json:"row"`
	UploadID      string                    `bson:"upload_id,omitempty" json:"upload_id"`
	UploadedAt    time.Time                 `bson:"uploaded_at" json:"uploaded_at"`

	// Исходная строка журнала как есть, имя колонки -> текст ячейки
	Raw flight.Row `bson:"raw" json:"raw"`
}

// Ingestor прогоняет строки журнала и шейп-файлы через разборщики и
// складывает результат в хранилище
type Ingestor struct {
	flights   *mongo.Collection
	regions   *regions.Store
	builder   *flight.Builder
	geo       *geosearch.Service
	log       *logger.Logger
	batchSize int
}

func New(
	flights *mongo.Collection,
	regionStore *regions.Store,
	builder *flight.Builder,
	geo *geosearch.Service,
	log *logger.Logger,
	batchSize int,
) *Ingestor {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Ingestor{
		flights:   flights,
		regions:   regionStore,
		builder:   builder,
		geo:       geo,
		log:       log,
		batchSize: batchSize,
	}
}

// WorkbookSummary — итог загрузки журнала полетов
type WorkbookSummary struct {
	Sheets     []string `json:"sheets"`
	TotalRows  int      `json:"total_rows"`
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
}

// IngestWorkbook читает xlsx-журнал: каждая строка каждого листа
// превращается в FlightDocument с привязкой к записи о загрузке.
// Битые строки дают частично заполненные записи, а не ошибки.
func (ing *Ingestor) IngestWorkbook(ctx context.Context, r io.Reader, uploadID string) (*WorkbookSummary, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	summary := &WorkbookSummary{}
	uploadedAt := time.Now().UTC()

	var batch []interface{}
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}
		summary.Sheets = append(summary.Sheets, sheet)

		header := rows[0]
		for i, cells := range rows[1:] {
			row := makeRow(header, cells)
			if isEmptyRow(row) {
				continue
			}
			summary.TotalRows++

			doc := ing.buildDocument(ctx, row, sheet, i+1, uploadID, uploadedAt)
			batch = append(batch, doc)

			if len(batch) >= ing.batchSize {
				ins, dup, err := ing.flush(ctx, batch)
				if err != nil {
					return nil, err
				}
				summary.Inserted += ins
				summary.Duplicates += dup
				batch = batch[:0]
			}
		}
	}

	if len(batch) > 0 {
		ins, dup, err := ing.flush(ctx, batch)
		if err != nil {
			return nil, err
		}
		summary.Inserted += ins
		summary.Duplicates += dup
	}

	ing.log.Info("workbook ingested",
		logger.Int("rows", summary.TotalRows),
		logger.Int("inserted", summary.Inserted),
		logger.Int("duplicates", summary.Duplicates))

	return summary, nil
}

func (ing *Ingestor) buildDocument(ctx context.Context, row flight.Row, sheet string, rowNum int, uploadID string, uploadedAt time.Time) FlightDocument {
	rec := ing.builder.Build(row)

	doc := FlightDocument{
		Record:     rec,
		Party:      classifier.Classify(rec.Operator),
		Sheet:      sheet,
		RowNumber:  rowNum,
		UploadID:   uploadID,
		UploadedAt: uploadedAt,
		Raw:        row,
	}

	if ing.geo != nil {
		if rec.Takeoff != nil {
			doc.TakeoffRegion = ing.geo.FindRegionForPoint(ctx, rec.Takeoff.Lat, rec.Takeoff.Lon)
		}
		if rec.Landing != nil {
			doc.LandingRegion = ing.geo.FindRegionForPoint(ctx, rec.Landing.Lat, rec.Landing.Lon)
		}
	}
	return doc
}

// flush вставляет пачку документов; дубликаты молча пропускаются
func (ing *Ingestor) flush(ctx context.Context, batch []interface{}) (inserted, duplicates int, err error) {
	res, err := ing.flights.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err != nil {
		if bwe, ok := err.(mongo.BulkWriteException); ok {
			for _, we := range bwe.WriteErrors {
				if we.Code == 11000 {
					duplicates++
					continue
				}
				return inserted, duplicates, fmt.Errorf("failed to insert flights: %w", err)
			}
			return inserted, duplicates, nil
		}
		return inserted, duplicates, fmt.Errorf("failed to insert flights: %w", err)
	}
	return inserted, duplicates, nil
}

func makeRow(header, cells []string) flight.Row {
	row := make(flight.Row, len(header))
	for i, name := range header {
		if i < len(cells) {
			row[name] = cells[i]
		}
	}
	return row
}

func isEmptyRow(row flight.Row) bool {
	return row.Get(flight.ColSHR) == "" &&
		row.Get(flight.ColDEP) == "" &&
		row.Get(flight.ColARR) == "" &&
		row.Get(flight.ColCenter) == ""
}

// ShapefileSummary — итог загрузки границ регионов
type ShapefileSummary struct {
	Shapes  int `json:"shapes"`
	Regions int `json:"regions"`
	Skipped int `json:"skipped"`
}

// IngestShapefile читает шейп-файл границ, группирует кольца по
// регионам и апсертит по одному полигону на регион. Расхождение числа
// записей и геометрий фатально для всего файла; регион без пригодных
// колец пропускается с записью в лог.
func (ing *Ingestor) IngestShapefile(ctx context.Context, path string) (*ShapefileSummary, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer reader.Close()

	fieldDefs := reader.Fields()
	fields := make([]string, len(fieldDefs))
	for i, f := range fieldDefs {
		fields[i] = f.String()
	}

	recordCount := reader.AttributeCount()

	var (
		shapes  []regions.Shape
		records [][]string
	)
	for reader.Next() {
		row, geom := reader.Shape()
		if row >= recordCount {
			return nil, regions.ErrRecordShapeMismatch
		}

		rec := make([]string, len(fields))
		for col := range fields {
			rec[col] = reader.ReadAttribute(row, col)
		}
		records = append(records, rec)
		shapes = append(shapes, toShape(geom))
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile: %w", err)
	}

	if recordCount != len(shapes) {
		return nil, regions.ErrRecordShapeMismatch
	}

	grouped, err := regions.GroupByRegion(fields, records, shapes)
	if err != nil {
		return nil, err
	}

	summary := &ShapefileSummary{Shapes: len(shapes)}
	for name, rings := range grouped {
		rp, err := regions.Resolve(name, rings)
		if err != nil {
			ing.log.Warn("region skipped",
				logger.String("region", name),
				logger.Error(err))
			summary.Skipped++
			continue
		}
		if err := ing.regions.Upsert(ctx, rp); err != nil {
			return nil, err
		}
		summary.Regions++
	}

	ing.log.Info("shapefile ingested",
		logger.Int("shapes", summary.Shapes),
		logger.Int("regions", summary.Regions),
		logger.Int("skipped", summary.Skipped))

	return summary, nil
}

// toShape переводит геометрию go-shp в плоский список точек со
// смещениями колец; не-полигональные записи дают пустую геометрию
func toShape(geom shp.Shape) regions.Shape {
	var (
		points []shp.Point
		parts  []int32
	)
	switch g := geom.(type) {
	case *shp.Polygon:
		points, parts = g.Points, g.Parts
	case *shp.PolygonZ:
		points, parts = g.Points, g.Parts
	case *shp.PolygonM:
		points, parts = g.Points, g.Parts
	default:
		return regions.Shape{}
	}

	out := regions.Shape{
		Points: make([]orb.Point, len(points)),
		Parts:  make([]int, len(parts)),
	}
	for i, p := range points {
		out.Points[i] = orb.Point{p.X, p.Y}
	}
	for i, p := range parts {
		out.Parts[i] = int(p)
	}
	return out
}
