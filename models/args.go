// Package models holds the argument shapes of the corpus tools.
package models

// GetChaptersArgs are the arguments of get_chapters.
// A nil Title means the caller did not supply one.
type GetChaptersArgs struct {
	Title *string `json:"title,omitempty" jsonschema_description:"If provided, filters chapters by title"`
}

// GetChapterByIDArgs are the arguments of get_chapter_by_id.
type GetChapterByIDArgs struct {
	ID string `json:"id" jsonschema_description:"The id of the chapter to retrieve"`
}

// ListChapterVersesArgs are the arguments of list_chapter_verses.
type ListChapterVersesArgs struct {
	ChapterID string `json:"chapter_id" jsonschema_description:"The id of the chapter to retrieve verses for"`
}

// ListVersesBySubstringsArgs are the arguments of list_verses_by_substrings.
type ListVersesBySubstringsArgs struct {
	Substrings []string `json:"substrings" jsonschema_description:"Filter verses by substrings (at least one required)"`
}

// SearchExplanationsArgs are the arguments of search_explanations.
type SearchExplanationsArgs struct {
	Query string `json:"query" jsonschema_description:"The query string to search for explanations"`
}

// GetVerseByIDArgs are the arguments of get_verse_by_id.
type GetVerseByIDArgs struct {
	ID string `json:"id" jsonschema_description:"The id of the verse to retrieve"`
}
