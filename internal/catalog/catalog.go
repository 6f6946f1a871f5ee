// Package catalog defines the closed enumerations and static reference data
// used across the application: supported languages, professions, study levels,
// the country list with calling codes, and the course library.
package catalog

import "fmt"

// Language identifies one of the supported interface/response languages.
type Language string

const (
	LanguagePortuguese Language = "pt-BR"
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguageFrench     Language = "fr"
)

// Languages lists all supported languages in display order.
var Languages = []Language{LanguagePortuguese, LanguageEnglish, LanguageSpanish, LanguageFrench}

// ParseLanguage validates a raw language code against the supported set.
func ParseLanguage(s string) (Language, error) {
	for _, l := range Languages {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// Profession identifies the user's declared profession.
type Profession string

const (
	ProfessionStudent    Profession = "Estudante"
	ProfessionTechnician Profession = "Técnico"
	ProfessionNurse      Profession = "Enfermeiro"
	ProfessionOther      Profession = "Outro"
)

// Professions lists all valid professions in display order.
var Professions = []Profession{ProfessionStudent, ProfessionTechnician, ProfessionNurse, ProfessionOther}

// ParseProfession validates a raw profession value against the supported set.
func ParseProfession(s string) (Profession, error) {
	for _, p := range Professions {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown profession %q", s)
}

// StudyLevel identifies the depth of explanation the user prefers.
type StudyLevel string

const (
	LevelLayperson    StudyLevel = "leigo"
	LevelBeginner     StudyLevel = "iniciante"
	LevelIntermediate StudyLevel = "intermediário"
	LevelAdvanced     StudyLevel = "avançado"
)

// StudyLevels lists all valid study levels from least to most advanced.
var StudyLevels = []StudyLevel{LevelLayperson, LevelBeginner, LevelIntermediate, LevelAdvanced}

// ParseStudyLevel validates a raw study level value against the supported set.
func ParseStudyLevel(s string) (StudyLevel, error) {
	for _, l := range StudyLevels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown study level %q", s)
}

// Country describes an entry of the supported country list. CallingCode is
// prefixed to the user's phone number when deriving the persistence key.
type Country struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CallingCode string `json:"code"`
	Flag        string `json:"flag"`
}

// Countries lists the supported lusophone countries in display order.
var Countries = []Country{
	{ID: "BR", Name: "Brasil", CallingCode: "+55", Flag: "🇧🇷"},
	{ID: "AO", Name: "Angola", CallingCode: "+244", Flag: "🇦🇴"},
	{ID: "PT", Name: "Portugal", CallingCode: "+351", Flag: "🇵🇹"},
	{ID: "MZ", Name: "Moçambique", CallingCode: "+258", Flag: "🇲🇿"},
	{ID: "CV", Name: "Cabo Verde", CallingCode: "+238", Flag: "🇨🇻"},
	{ID: "GW", Name: "Guiné-Bissau", CallingCode: "+245", Flag: "🇬🇼"},
	{ID: "ST", Name: "São Tomé e Príncipe", CallingCode: "+239", Flag: "🇸🇹"},
}

// CountryByID looks up a country by its two-letter identifier.
func CountryByID(id string) (Country, error) {
	for _, c := range Countries {
		if c.ID == id {
			return c, nil
		}
	}
	return Country{}, fmt.Errorf("unknown country %q", id)
}

// CourseCategory groups courses in the library view.
type CourseCategory string

const (
	CategoryNursing         CourseCategory = "Nursing"
	CategoryGeneralMedicine CourseCategory = "General Medicine"
	CategoryNaturalMedicine CourseCategory = "Natural Medicine"
)

// Course describes one entry of the course library.
type Course struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    CourseCategory `json:"category"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
}

// Courses lists the built-in course library.
var Courses = []Course{
	{ID: "enf-1", Title: "Fundamentos de Enfermagem", Category: CategoryNursing, Description: "Técnicas básicas e ética profissional.", Icon: "ClipboardList"},
	{ID: "med-1", Title: "Farmacologia Clínica", Category: CategoryGeneralMedicine, Description: "Interações e administração de fármacos.", Icon: "Pill"},
	{ID: "phy-1", Title: "Fitoterapia Aplicada", Category: CategoryNaturalMedicine, Description: "Uso terapêutico e contraindicações.", Icon: "Leaf"},
}

// CourseByID looks up a course by its identifier.
func CourseByID(id string) (Course, error) {
	for _, c := range Courses {
		if c.ID == id {
			return c, nil
		}
	}
	return Course{}, fmt.Errorf("unknown course %q", id)
}
