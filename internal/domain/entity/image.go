package entity

// UploadedImage загруженный пользователем файл до валидации.
type UploadedImage struct {
	Filename string // имя файла от клиента, недоверенные данные
	Content  []byte
}

// StoredImageRef ссылка на изображение в хранилище.
type StoredImageRef struct {
	Key      string `json:"key"`      // ключ в хранилище
	Filename string `json:"filename"` // очищенное имя файла, только для отображения
}

// AnnotatedImageRef ссылка на копию изображения с нарисованными рамками.
type AnnotatedImageRef struct {
	StoredImageRef
	SourceKey string `json:"source_key"`
	URL       string `json:"url,omitempty"` // заполняется слоем представления
}

// ResultRecord итог обработки одной загрузки.
type ResultRecord struct {
	AnnotatedImage AnnotatedImageRef `json:"annotated_image"`
	Detections     []Detection       `json:"detections"`
}
