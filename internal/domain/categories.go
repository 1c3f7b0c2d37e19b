package domain

// Category — тег категории каталога. Набор закрыт.
type Category string

const (
	CategoryAction  Category = "action"
	CategorySciFi   Category = "sci_fi"
	CategoryComedy  Category = "comedy"
	CategoryRomance Category = "romance"
	CategoryHorror  Category = "horror"
)

// Categories возвращает все известные категории в порядке показа в меню.
func Categories() []Category {
	return []Category{CategoryAction, CategorySciFi, CategoryComedy, CategoryRomance, CategoryHorror}
}

// KnownCategory проверяет принадлежность тега закрытому набору.
func KnownCategory(tag string) bool {
	switch Category(tag) {
	case CategoryAction, CategorySciFi, CategoryComedy, CategoryRomance, CategoryHorror:
		return true
	default:
		return false
	}
}
