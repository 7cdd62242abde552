package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// SchemaService infers column roles for an uploaded dataset.
type SchemaService interface {
	// Introspect classifies every column as numeric, categorical, or
	// temporal. Classification never fails: values that fit no
	// interpretation simply read as missing.
	Introspect(ctx context.Context, dataset *models.Dataset) []models.ColumnDescriptor

	// Profile summarizes each column for schema inspection and AI context.
	Profile(ctx context.Context, dataset *models.Dataset, schema []models.ColumnDescriptor) []models.ColumnProfile
}

// schemaService implements SchemaService.
type schemaService struct {
	logger *zap.Logger
}

// NewSchemaService creates a new schema service.
func NewSchemaService(logger *zap.Logger) SchemaService {
	return &schemaService{
		logger: logger.Named("schema"),
	}
}

var _ SchemaService = (*schemaService)(nil)

// maxProfileSamples caps how many example values a column profile carries.
const maxProfileSamples = 3

// Introspect classifies columns in declaration order.
//
// A column is temporal when the loader declared it so, or when every
// non-missing value parses as a date. It is numeric when every non-missing
// value parses as a number. Everything else, including columns with no
// usable values at all, is categorical.
func (s *schemaService) Introspect(ctx context.Context, dataset *models.Dataset) []models.ColumnDescriptor {
	if dataset == nil {
		return nil
	}

	schema := make([]models.ColumnDescriptor, 0, len(dataset.Columns))
	for _, name := range dataset.Columns {
		role := s.classifyColumn(dataset, name)
		desc := models.ColumnDescriptor{Name: name, Role: role}
		if role == models.ColumnRoleCategorical {
			// Warm the cache while the data is hot; entity resolution
			// reads these on every turn.
			desc.DistinctValues(dataset)
		}
		schema = append(schema, desc)
	}

	s.logger.Debug("dataset introspected",
		zap.Int("rows", dataset.RowCount()),
		zap.Int("columns", len(schema)))

	return schema
}

func (s *schemaService) classifyColumn(dataset *models.Dataset, name string) models.ColumnRole {
	if dataset.IsDeclaredTemporal(name) {
		return models.ColumnRoleTemporal
	}

	nonMissing := 0
	allDates := true
	allNumbers := true

	for _, row := range dataset.Rows {
		cell := row[name]
		if cell.IsMissing() {
			continue
		}
		nonMissing++

		if allDates {
			if _, ok := cell.Time(); !ok {
				allDates = false
			}
		}
		if allNumbers {
			if _, ok := cell.Float(); !ok {
				allNumbers = false
			}
		}
		if !allDates && !allNumbers {
			break
		}
	}

	if nonMissing == 0 {
		return models.ColumnRoleCategorical
	}
	if allDates {
		return models.ColumnRoleTemporal
	}
	if allNumbers {
		return models.ColumnRoleNumeric
	}
	return models.ColumnRoleCategorical
}

// Profile summarizes each column: role, fill rate, cardinality, and a few
// sample values in first-appearance order.
func (s *schemaService) Profile(ctx context.Context, dataset *models.Dataset, schema []models.ColumnDescriptor) []models.ColumnProfile {
	if dataset == nil {
		return nil
	}

	profiles := make([]models.ColumnProfile, 0, len(schema))
	for _, desc := range schema {
		profile := models.ColumnProfile{
			Name: desc.Name,
			Role: desc.Role,
		}

		seen := make(map[string]bool)
		for _, row := range dataset.Rows {
			cell := row[desc.Name]
			if cell.IsMissing() {
				continue
			}
			profile.NonNullCount++

			v := cell.String()
			if !seen[v] {
				seen[v] = true
				if len(profile.SampleValues) < maxProfileSamples {
					profile.SampleValues = append(profile.SampleValues, v)
				}
			}
		}
		profile.UniqueCount = len(seen)

		profiles = append(profiles, profile)
	}

	return profiles
}
