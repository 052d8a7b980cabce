package core

import (
	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"
)

// Locales supported by the API.
const (
	LocaleES = "es"
	LocaleEN = "en"
)

// messages holds the localized texts of every message key returned by the API.
var messages = map[string]map[string]string{
	LocaleES: {
		"general.success":      "Operación realizada con éxito",
		"general.created":      "Recurso creado con éxito",
		"general.not_found":    "Recurso no encontrado",
		"general.validation":   "Los datos enviados no son válidos",
		"general.forbidden":    "No tienes permisos para realizar esta acción",
		"general.server_error": "Error interno del servidor",
		"general.welcome":      "¡Bienvenido a la API de {0}!",

		"auth.unauthorized":    "Usuario no autenticado",
		"auth.failed":          "Credenciales inválidas",
		"auth.deactivated":     "La cuenta está desactivada",
		"auth.refresh_expired": "El token ya no puede ser renovado",
		"auth.logged_in":       "Inicio de sesión exitoso",

		"chapter.not_found":   "El capítulo no existe",
		"chapter.name_exists": "Ya existe un capítulo con este nombre",
		"chapter.created":     "Capítulo creado con éxito",
		"chapter.found":       "Capítulo encontrado",
		"chapter.listed":      "Capítulos obtenidos con éxito",

		"user.not_found":        "El usuario no existe",
		"user.email_exists":     "Ya existe un usuario con este correo",
		"user.invalid_role":     "El rol no es válido",
		"user.invalid_limit":    "El límite de tutorías activas no puede ser negativo",
		"user.limit_forbidden":  "Solo los tutores o administradores pueden actualizar el límite de tutorías",
		"user.created":          "Usuario creado con éxito",
		"user.found":            "Usuario encontrado",
		"user.listed":           "Usuarios obtenidos con éxito",
		"user.role_updated":     "Rol actualizado con éxito",
		"user.limit_updated":    "Límite de tutorías actualizado con éxito",
		"user.password_updated": "Contraseña actualizada con éxito",

		"tutoring.not_found":              "La tutoría no existe",
		"tutoring.not_active":             "No se puede cambiar el estado de la tutoría porque no está en estado Activa",
		"tutoring.complete_forbidden":     "No tienes permisos para completar esta tutoría",
		"tutoring.cancel_forbidden":       "Solo los administradores pueden cancelar tutorías",
		"tutoring.missing_tutor_feedback": "No se puede completar la tutoría porque falta el feedback del tutor",
		"tutoring.missing_tutee_feedback": "No se puede completar la tutoría porque falta el feedback del tutee",
		"tutoring.create_forbidden":       "Solo el tutor asignado o un administrador pueden crear la tutoría",
		"tutoring.invalid_tutor":          "El usuario asignado como tutor no tiene el rol Tutor o está inactivo",
		"tutoring.invalid_tutee":          "El usuario asignado como tutorado no tiene el rol Tutorado o está inactivo",
		"tutoring.same_user":              "El tutor y el tutorado deben ser usuarios distintos",
		"tutoring.duplicate":              "Ya existe una tutoría activa entre el tutor y el tutorado",
		"tutoring.limit_reached":          "El tutor alcanzó su límite de {0} tutorías activas",
		"tutoring.created":                "Tutoría creada con éxito",
		"tutoring.found":                  "Tutoría encontrada",
		"tutoring.listed":                 "Tutorías obtenidas con éxito",
		"tutoring.completed":              "Tutoría marcada como completada con éxito",
		"tutoring.cancelled":              "Tutoría cancelada con éxito",

		"feedback.not_found":  "El feedback no existe",
		"feedback.forbidden":  "Solo los participantes de la tutoría o un administrador pueden registrar feedback",
		"feedback.not_active": "Solo se puede registrar feedback en tutorías activas",
		"feedback.created":    "Feedback registrado con éxito",
		"feedback.found":      "Feedback encontrado",
		"feedback.listed":     "Feedbacks obtenidos con éxito",

		"session.not_found":          "La sesión de tutoría no existe",
		"session.forbidden":          "Solo el tutor asignado o un administrador pueden gestionar las sesiones",
		"session.not_active":         "Solo se pueden programar sesiones en tutorías activas",
		"session.invalid_transition": "La sesión solo puede pasar de Programada a Realizada o Cancelada",
		"session.created":            "Sesión de tutoría creada con éxito",
		"session.found":              "Sesión de tutoría encontrada",
		"session.listed":             "Sesiones de tutoría obtenidas con éxito",
		"session.updated":            "Sesión de tutoría actualizada con éxito",
	},
	LocaleEN: {
		"general.success":      "Operation completed successfully",
		"general.created":      "Resource created successfully",
		"general.not_found":    "Resource not found",
		"general.validation":   "The submitted data is not valid",
		"general.forbidden":    "You do not have permission to perform this action",
		"general.server_error": "Internal server error",
		"general.welcome":      "Welcome to the {0} API!",

		"auth.unauthorized":    "User not authenticated",
		"auth.failed":          "Invalid credentials",
		"auth.deactivated":     "Account deactivated",
		"auth.refresh_expired": "The token can no longer be refreshed",
		"auth.logged_in":       "Logged in successfully",

		"chapter.not_found":   "The chapter does not exist",
		"chapter.name_exists": "A chapter with this name already exists",
		"chapter.created":     "Chapter created successfully",
		"chapter.found":       "Chapter found",
		"chapter.listed":      "Chapters retrieved successfully",

		"user.not_found":        "The user does not exist",
		"user.email_exists":     "A user with this email already exists",
		"user.invalid_role":     "Invalid role",
		"user.invalid_limit":    "The active tutoring limit cannot be negative",
		"user.limit_forbidden":  "Only tutors or administrators can update the tutoring limit",
		"user.created":          "User created successfully",
		"user.found":            "User found",
		"user.listed":           "Users retrieved successfully",
		"user.role_updated":     "Role updated successfully",
		"user.limit_updated":    "Tutoring limit updated successfully",
		"user.password_updated": "Password updated successfully",

		"tutoring.not_found":              "The tutoring does not exist",
		"tutoring.not_active":             "The tutoring status cannot change because it is not Activa",
		"tutoring.complete_forbidden":     "You do not have permission to complete this tutoring",
		"tutoring.cancel_forbidden":       "Only administrators can cancel tutorings",
		"tutoring.missing_tutor_feedback": "The tutoring cannot be completed because the tutor feedback is missing",
		"tutoring.missing_tutee_feedback": "The tutoring cannot be completed because the tutee feedback is missing",
		"tutoring.create_forbidden":       "Only the assigned tutor or an administrator can create the tutoring",
		"tutoring.invalid_tutor":          "The user assigned as tutor does not have the Tutor role or is inactive",
		"tutoring.invalid_tutee":          "The user assigned as tutee does not have the Tutorado role or is inactive",
		"tutoring.same_user":              "The tutor and the tutee must be different users",
		"tutoring.duplicate":              "An active tutoring between this tutor and tutee already exists",
		"tutoring.limit_reached":          "The tutor reached their limit of {0} active tutorings",
		"tutoring.created":                "Tutoring created successfully",
		"tutoring.found":                  "Tutoring found",
		"tutoring.listed":                 "Tutorings retrieved successfully",
		"tutoring.completed":              "Tutoring marked as completed successfully",
		"tutoring.cancelled":              "Tutoring cancelled successfully",

		"feedback.not_found":  "The feedback does not exist",
		"feedback.forbidden":  "Only the tutoring participants or an administrator can submit feedback",
		"feedback.not_active": "Feedback can only be submitted on active tutorings",
		"feedback.created":    "Feedback submitted successfully",
		"feedback.found":      "Feedback found",
		"feedback.listed":     "Feedbacks retrieved successfully",

		"session.not_found":          "The tutoring session does not exist",
		"session.forbidden":          "Only the assigned tutor or an administrator can manage sessions",
		"session.not_active":         "Sessions can only be scheduled on active tutorings",
		"session.invalid_transition": "A session can only move from Programada to Realizada or Cancelada",
		"session.created":            "Tutoring session created successfully",
		"session.found":              "Tutoring session found",
		"session.listed":             "Tutoring sessions retrieved successfully",
		"session.updated":            "Tutoring session updated successfully",
	},
}

// NewUniversalTranslator returns a translator holding the API messages for every supported locale.
// Unknown locales fall back to defaultLocale.
func NewUniversalTranslator(defaultLocale string) (*ut.UniversalTranslator, error) {
	lcs := map[string]locales.Translator{
		LocaleES: es.New(),
		LocaleEN: en.New(),
	}
	fallback, ok := lcs[defaultLocale]
	if !ok {
		return nil, errors.Errorf("unsupported locale %q", defaultLocale)
	}

	uni := ut.New(fallback, lcs[LocaleES], lcs[LocaleEN])
	for locale, msgs := range messages {
		trans, _ := uni.GetTranslator(locale)
		for key, text := range msgs {
			if err := trans.Add(key, text, false); err != nil {
				return nil, errors.Wrapf(err, "adding %s translation %q", locale, key)
			}
		}
	}
	return uni, nil
}

// Translate returns the localized text of key, or the key itself when it has no translation.
func Translate(trans ut.Translator, key string, params ...string) string {
	if trans == nil {
		return key
	}
	s, err := trans.T(key, params...)
	if err != nil || s == "" {
		return key
	}
	return s
}

// TranslateError returns the localized message of a domain Error.
func TranslateError(trans ut.Translator, err *Error) string {
	return Translate(trans, err.Key, err.Params...)
}
