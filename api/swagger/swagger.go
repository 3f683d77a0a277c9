package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SGTU LMS API",
        "description": "Section, course and teacher assignment engine with access resolution and unlock escalation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Sections", "description": "Section offering and roster administration"},
        {"name": "Assignments", "description": "Teacher ↔ section/course assignments"},
        {"name": "Students", "description": "Student membership lookups"},
        {"name": "Access", "description": "Course access resolution"},
        {"name": "Courses", "description": "Catalog reads scoped by access"},
        {"name": "Locks", "description": "Content locks and unlock escalation"}
    ],
    "paths": {
        "/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get section detail with offering and member count",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/sections/{id}/courses/{courseId}": {
            "put": {
                "tags": ["Sections"],
                "summary": "Attach a course to a section (idempotent)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Attached"},
                    "404": {"description": "Section or course not found"}
                }
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Detach a course; refused while an active assignment holds the pair",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Detached"},
                    "404": {"description": "Course not attached"},
                    "412": {"description": "Active assignment still references the pair"}
                }
            }
        },
        "/sections/{id}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List a section's active assignments",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a teacher to a course within the section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignTeacherRequest"}}
                ],
                "responses": {
                    "200": {"description": "Already assigned (idempotent no-op)"},
                    "201": {"description": "Assigned"},
                    "409": {"description": "Another teacher already holds the pair"},
                    "422": {"description": "Department mismatch"}
                }
            },
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove an active assignment (soft delete)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RemoveTeacherRequest"}}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "No matching active assignment"}
                }
            }
        },
        "/sections/{id}/students": {
            "get": {
                "tags": ["Sections"],
                "summary": "List section roster",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Bulk enroll students; already-present students are skipped",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignStudentsRequest"}}
                ],
                "responses": {
                    "204": {"description": "Enrolled"},
                    "409": {"description": "Capacity exceeded or cross-section conflict"}
                }
            }
        },
        "/sections/{id}/students/{studentId}": {
            "put": {
                "tags": ["Sections"],
                "summary": "Enroll a single student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Enrolled"},
                    "409": {"description": "Already assigned, capacity exceeded or cross-section conflict"}
                }
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Remove a student from the section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Student is not a member"}
                }
            }
        },
        "/teachers/{id}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List a teacher's sections and courses (direct and course-specific)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/section": {
            "get": {
                "tags": ["Students"],
                "summary": "Resolve a student's current section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not enrolled"}
                }
            }
        },
        "/students/{id}/locks": {
            "get": {
                "tags": ["Locks"],
                "summary": "List a student's content locks",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/access/courses": {
            "get": {
                "tags": ["Access"],
                "summary": "List course ids the subject may reach",
                "parameters": [{"name": "user_id", "in": "query", "required": false, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/access/courses/{courseId}": {
            "get": {
                "tags": ["Access"],
                "summary": "Check whether the subject may access the course",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "user_id", "in": "query", "required": false, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List the courses the caller may reach",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course detail with coordinators",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Caller outside the course's access surface"}
                }
            }
        },
        "/locks": {
            "post": {
                "tags": ["Locks"],
                "summary": "Create a content lock with zeroed counters",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLockRequest"}}],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/locks/{id}": {
            "get": {
                "tags": ["Locks"],
                "summary": "Get a lock",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Lock not found"}
                }
            }
        },
        "/locks/{id}/teacher-unlock": {
            "post": {
                "tags": ["Locks"],
                "summary": "Apply a teacher unlock; refused once the quota is spent",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "Unlocked"},
                    "403": {"description": "Escalation required"}
                }
            }
        },
        "/locks/{id}/dean-unlock": {
            "post": {
                "tags": ["Locks"],
                "summary": "Apply a dean unlock (never quota limited)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "Unlocked"},
                    "404": {"description": "Lock not found"}
                }
            }
        }
    },
    "definitions": {
        "AssignTeacherRequest": {
            "type": "object",
            "required": ["course_id", "teacher_id", "academic_year", "semester"],
            "properties": {
                "course_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "academic_year": {"type": "string"},
                "semester": {"type": "string"}
            }
        },
        "RemoveTeacherRequest": {
            "type": "object",
            "required": ["course_id", "teacher_id"],
            "properties": {
                "course_id": {"type": "string"},
                "teacher_id": {"type": "string"}
            }
        },
        "AssignStudentsRequest": {
            "type": "object",
            "required": ["student_ids"],
            "properties": {
                "student_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateLockRequest": {
            "type": "object",
            "required": ["student_id", "target_type", "target_id", "reason"],
            "properties": {
                "student_id": {"type": "string"},
                "target_type": {"type": "string", "enum": ["QUIZ", "VIDEO"]},
                "target_id": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "UnlockRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string"}
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
                "pagination": {"type": "object"},
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
