package simpleexport

// JSONInput is what SaveJSON accepts: JSONValue or JSONText
type JSONInput interface {
	isJSONInput()
}

// JSONValue is a Go value to serialize
type JSONValue struct {
	V any
}

// JSONText is JSON that is already serialized
type JSONText string

func (JSONValue) isJSONInput() {}
func (JSONText) isJSONInput()  {}

// CSVInput is what SaveCSV accepts: CSVText, CSVRows, CSVRecords or CSVStructs
type CSVInput interface {
	isCSVInput()
}

// CSVText is delimited text saved as is
type CSVText string

// CSVRows is a list of rows; the first row is not treated specially
type CSVRows [][]string

// CSVRecords is a list of objects. Headers come from Order or, when Order is
// empty, from the sorted keys of the first record.
type CSVRecords struct {
	Records []map[string]any
	Order   []string
}

// CSVStructs is a slice of structs tagged for gocsv
type CSVStructs struct {
	V any
}

func (CSVText) isCSVInput()    {}
func (CSVRows) isCSVInput()    {}
func (CSVRecords) isCSVInput() {}
func (CSVStructs) isCSVInput() {}

// HTMLInput is what SaveHTML accepts: HTMLText or HTMLSelection
type HTMLInput interface {
	isHTMLInput()
}

// HTMLText is markup saved as is
type HTMLText string

// HTMLSelection is a resolved element whose inner markup is saved
type HTMLSelection struct {
	Element Element
}

func (HTMLText) isHTMLInput()      {}
func (HTMLSelection) isHTMLInput() {}

// ImageTarget is what SaveImage accepts: ImageSelector or ImageElement
type ImageTarget interface {
	isImageTarget()
}

// ImageSelector is resolved through the exporter's Querier
type ImageSelector string

// ImageElement is an element resolved by the caller
type ImageElement struct {
	Element Element
}

func (ImageSelector) isImageTarget() {}
func (ImageElement) isImageTarget()  {}
