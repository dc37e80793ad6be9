// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeSchoolsByCountry QueryType = "schools_by_country"
	QueryTypeSchoolDetails    QueryType = "school_details"
	QueryTypeProgramsBySchool QueryType = "programs_by_school"
	QueryTypeProgramDetails   QueryType = "program_details"
)
