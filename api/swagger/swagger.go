package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Engine API",
        "description": "Examination lifecycle, grading and analytics engine",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Exams", "description": "Exam scheduling and lifecycle"},
        {"name": "Marks", "description": "Marks ledger"},
        {"name": "Grading", "description": "Grading scales and bands"},
        {"name": "Results", "description": "Publishing and published results"},
        {"name": "Analytics", "description": "Derived exam statistics"},
        {"name": "Reports", "description": "Report cards"}
    ],
    "paths": {
        "/exams": {
            "get": {
                "tags": ["Exams"],
                "summary": "List exams",
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Exams"],
                "summary": "Schedule an exam with its subjects",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}": {
            "get": {
                "tags": ["Exams"],
                "summary": "Get one exam with its subjects",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}/status": {
            "patch": {
                "tags": ["Exams"],
                "summary": "Advance the exam lifecycle one step",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-subjects/{subjectId}": {
            "put": {
                "tags": ["Exams"],
                "summary": "Correct one exam subject slot",
                "parameters": [
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSubjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Exam locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-subjects/{subjectId}/marks": {
            "get": {
                "tags": ["Marks"],
                "summary": "List the marks of one exam subject",
                "parameters": [
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Marks"],
                "summary": "Enter a batch of marks (all-or-nothing)",
                "parameters": [
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnterMarksRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Batch rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-subjects/{subjectId}/marks/sheet": {
            "get": {
                "tags": ["Marks"],
                "summary": "Mark sheet of enrolled students",
                "parameters": [
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading-scales": {
            "get": {
                "tags": ["Grading"],
                "summary": "List grading scales",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Grading"],
                "summary": "Create a grading scale; bands must tile 0-100",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScaleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading-scales/{id}": {
            "get": {
                "tags": ["Grading"],
                "summary": "Get one grading scale with its bands",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Grading"],
                "summary": "Delete an unused grading scale",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Scale in use", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading-scales/{id}/resolve": {
            "get": {
                "tags": ["Grading"],
                "summary": "Resolve a percentage against a grading scale",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "percentage", "in": "query", "required": true, "type": "number"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}/publish": {
            "post": {
                "tags": ["Results"],
                "summary": "Publish or re-publish the results of a completed exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PublishRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not ready or publish in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}/results": {
            "get": {
                "tags": ["Results"],
                "summary": "List the published results of an exam, ranked",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Results not published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}/results/{studentId}": {
            "get": {
                "tags": ["Results"],
                "summary": "Get one student's published result",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}/analytics": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Exam-level statistics with per-subject breakdown",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}/analytics/subjects/{subjectId}": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Statistics for one exam subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}/report-cards/{studentId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Build a student's report card document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Results not published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}/report-cards/{studentId}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export a report card as csv or pdf",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "CreateExamRequest": {
            "type": "object",
            "properties": {
                "term_id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["CLASS_TEST", "MIDTERM", "FINAL", "QUIZ", "PRACTICAL", "ASSIGNMENT"]},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "description": {"type": "string"},
                "subjects": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ExamSubjectInput"}
                }
            },
            "required": ["term_id", "name", "type", "start_date", "end_date", "subjects"]
        },
        "ExamSubjectInput": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "exam_date": {"type": "string"},
                "total_marks": {"type": "number"},
                "passing_marks": {"type": "number"}
            },
            "required": ["subject_id", "total_marks"]
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["SCHEDULED", "IN_PROGRESS", "COMPLETED"]}
            },
            "required": ["status"]
        },
        "UpdateSubjectRequest": {
            "type": "object",
            "properties": {
                "exam_date": {"type": "string"},
                "total_marks": {"type": "number"},
                "passing_marks": {"type": "number"}
            },
            "required": ["total_marks"]
        },
        "EnterMarksRequest": {
            "type": "object",
            "properties": {
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/MarkEntryInput"}
                }
            },
            "required": ["entries"]
        },
        "MarkEntryInput": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "marks_obtained": {"type": "number"},
                "is_absent": {"type": "boolean"},
                "remarks": {"type": "string"}
            },
            "required": ["student_id"]
        },
        "CreateScaleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "bands": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/GradeBandInput"}
                }
            },
            "required": ["name", "bands"]
        },
        "GradeBandInput": {
            "type": "object",
            "properties": {
                "min_percentage": {"type": "number"},
                "max_percentage": {"type": "number"},
                "grade": {"type": "string"},
                "grade_point": {"type": "number"},
                "description": {"type": "string"}
            },
            "required": ["grade"]
        },
        "PublishRequest": {
            "type": "object",
            "properties": {
                "grading_scale_id": {"type": "string"}
            },
            "required": ["grading_scale_id"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
