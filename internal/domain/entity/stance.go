package entity

// Stance представляет ответ или желаемый ответ пользователя на вопрос.
// Отсутствие записи (StanceAbsent) и ответ "нет" (StanceNo) — разные состояния,
// их нельзя сводить к false: иначе отсутствие ответа будет засчитано при подсчёте совместимости.
type Stance int8

const (
	StanceAbsent Stance = iota // Записи нет
	StanceNo                   // Ответ "нет"
	StanceYes                  // Ответ "да"
)

// StanceOf преобразует булево значение в Stance
func StanceOf(value bool) Stance {
	if value {
		return StanceYes
	}
	return StanceNo
}

// StanceFromPtr преобразует nullable-значение из БД в Stance
func StanceFromPtr(value *bool) Stance {
	if value == nil {
		return StanceAbsent
	}
	return StanceOf(*value)
}

// IsSet возвращает true, если значение записано
func (s Stance) IsSet() bool {
	return s != StanceAbsent
}

// Bool возвращает значение и признак его наличия
func (s Stance) Bool() (value bool, ok bool) {
	switch s {
	case StanceYes:
		return true, true
	case StanceNo:
		return false, true
	default:
		return false, false
	}
}

// Ptr возвращает значение в виде указателя (nil для StanceAbsent), удобно для JSON-ответов
func (s Stance) Ptr() *bool {
	value, ok := s.Bool()
	if !ok {
		return nil
	}
	return &value
}

func (s Stance) String() string {
	switch s {
	case StanceYes:
		return "yes"
	case StanceNo:
		return "no"
	default:
		return "absent"
	}
}
