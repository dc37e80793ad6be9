// internal/catalog/queries.go
package catalog

import "school-match-workers/internal/models"

const (
	schoolColumns  = `id, cn_name, en_name, country, city, region, ranking, tags`
	programColumns = `id, school_id, cn_name, en_name, degree, duration, tuition_fee, category, faculty, url`
)

// Statements is the SQL used for each catalog query type.
var Statements = map[models.QueryType]string{
	models.QueryTypeSchoolsByCountry: `
		SELECT ` + schoolColumns + `
		FROM schools
		WHERE cardinality($1::text[]) = 0 OR country ILIKE ANY($1::text[])
		ORDER BY ranking ASC NULLS LAST, id
		LIMIT $2 OFFSET $3`,

	models.QueryTypeSchoolDetails: `
		SELECT ` + schoolColumns + `
		FROM schools
		WHERE id = $1`,

	models.QueryTypeProgramsBySchool: `
		SELECT ` + programColumns + `
		FROM programs
		WHERE school_id = ANY($1::uuid[])
		ORDER BY school_id, id`,

	models.QueryTypeProgramDetails: `
		SELECT ` + programColumns + `
		FROM programs
		WHERE id = $1`,
}
