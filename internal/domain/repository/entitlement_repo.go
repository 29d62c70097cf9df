package repository

// EntitlementRepository читает внешние факты о правах доступа.
// Каталог продуктов, покупки и зачисления на курсы принадлежат внешним
// подсистемам; здесь только read-only предикаты для резолвера доступа.
// Три независимых механизма гранта объединяются логическим ИЛИ.
type EntitlementRepository interface {
	// HasProductAccess: пользователь купил или получил от админа продукт,
	// привязанный к тесту (источники эквивалентны)
	HasProductAccess(userID, mockTestID uint) (bool, error)
	// IsDemoExempted: тест в админском списке исключений и доступен всем
	IsDemoExempted(mockTestID uint) (bool, error)
	// HasLessonPathAccess: пользователь зачислен на курс, в цепочке уроков
	// которого этот тест служит итоговой проверкой
	HasLessonPathAccess(userID, mockTestID uint) (bool, error)
}
