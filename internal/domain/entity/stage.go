package entity

// Stage этап обработки загрузки
type Stage string

const (
	StageReceived  Stage = "received"  // Файл получен
	StageValidated Stage = "validated" // Файл проверен и сохранён
	StageDetected  Stage = "detected"  // Объекты найдены
	StageAnnotated Stage = "annotated" // Рамки нарисованы
	StageAssembled Stage = "assembled" // Результат собран
	StageReturned  Stage = "returned"  // Результат отдан вызывающему
	StageError     Stage = "error"     // Обработка прервана ошибкой
)
