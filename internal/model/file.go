package model

const TableNameFile = "files"

// File mapped from table <files>
type File struct {
	FileID                int64   `gorm:"column:file_id;primaryKey;autoIncrement" json:"fileId"`
	OldFileID             *int64  `gorm:"column:old_file_id" json:"oldFileId"`
	CourseID              int64   `gorm:"column:course_id;not null" json:"courseId"`
	CourseFullname        string  `gorm:"column:course_fullname;not null" json:"courseFullname"`
	ModuleID              int64   `gorm:"column:module_id;not null" json:"moduleId"`
	SectionName           string  `gorm:"column:section_name;not null" json:"sectionName"`
	SectionID             int64   `gorm:"column:section_id;not null;default:0" json:"sectionId"`
	ModuleName            string  `gorm:"column:module_name;not null" json:"moduleName"`
	ContentFilepath       string  `gorm:"column:content_filepath;not null" json:"contentFilepath"`
	ContentFilename       string  `gorm:"column:content_filename;not null" json:"contentFilename"`
	ContentFileurl        string  `gorm:"column:content_fileurl;not null" json:"contentFileurl"`
	ContentFilesize       int64   `gorm:"column:content_filesize;not null" json:"contentFilesize"`
	ContentTimemodified   int64   `gorm:"column:content_timemodified;not null" json:"contentTimemodified"`
	ModuleModname         string  `gorm:"column:module_modname;not null" json:"moduleModname"`
	ContentType           string  `gorm:"column:content_type;not null" json:"contentType"`
	ContentIsExternalFile int64   `gorm:"column:content_isexternalfile;not null;default:0" json:"contentIsExternalFile"`
	SavedTo               string  `gorm:"column:saved_to;not null" json:"savedTo"`
	TimeStamp             int64   `gorm:"column:time_stamp;not null" json:"timeStamp"`
	Modified              int64   `gorm:"column:modified;not null;default:0" json:"modified"`
	Deleted               int64   `gorm:"column:deleted;not null;default:0" json:"deleted"`
	Notified              int64   `gorm:"column:notified;not null;default:0" json:"notified"`
	Hash                  *string `gorm:"column:hash" json:"hash"`
	Moved                 int64   `gorm:"column:moved;not null;default:0" json:"moved"`
}

// TableName File's table name
func (*File) TableName() string {
	return TableNameFile
}

// LegacyFileColumns columns of the original files table, before the surrogate key rebuild
// LegacyFileColumns 重建主键之前 files 表的原始列
var LegacyFileColumns = []string{
	"course_id",
	"course_fullname",
	"module_id",
	"section_name",
	"module_name",
	"content_filepath",
	"content_filename",
	"content_fileurl",
	"content_filesize",
	"content_timemodified",
	"module_modname",
	"content_type",
	"content_isexternalfile",
	"saved_to",
	"time_stamp",
	"modified",
	"deleted",
	"notified",
}
