package catalog

import (
	"net/url"

	"github.com/hays/shahnameh-mcp/models"
)

// Fallback sentences returned when the upstream yields nothing usable.
const (
	FallbackChapters     = "Unable to fetch chapters or no chapters found."
	FallbackChapter      = "Unable to fetch chapter or chapter not found."
	FallbackVerses       = "Unable to fetch verses or no verses found."
	FallbackExplanations = "Unable to fetch explanations or no explanations found."
	FallbackVerse        = "Unable to fetch verse or verse not found."
)

// corpusTools returns the six tool definitions in the order they are listed.
func corpusTools() []*Tool {
	return []*Tool{
		getChapters(),
		getChapterByID(),
		listChapterVerses(),
		listVersesBySubstrings(),
		searchExplanations(),
		getVerseByID(),
	}
}

func getChapters() *Tool {
	return define("get_chapters", "Get Chapters", FallbackChapters,
		`Get all chapters of Shahnameh with their sub-chapters if exist.

Args:
    title: If provided, filters chapters by title

Persian explanation:
شاهنامه فردوسی از بخش های مختلفی تشکیل شده است. اگر بخشی والد نداشت یعنی جزو بخش های اصلی کتاب است.
هر بخش اصلی می تواند شامل زیر بخش هایی باشد
می توان بخش ها را با عنوان آنها جستجو کرد`,
		func(a models.GetChaptersArgs) endpoint {
			ep := endpoint{path: "/chapters"}
			if a.Title != nil {
				ep.query = url.Values{"title": {*a.Title}}
			}
			return ep
		})
}

func getChapterByID() *Tool {
	return define("get_chapter_by_id", "Get Chapter By ID", FallbackChapter,
		`Get a specific chapter of Shahnameh by its ID.

Args:
    id: The id of the chapter to retrieve

Persian explanation:
هر بخش از شاهنامه یک شناسه یکتا دارد که با آن می توان بخش مورد نظر را دریافت کرد`,
		func(a models.GetChapterByIDArgs) endpoint {
			return endpoint{path: "/chapters/" + url.PathEscape(a.ID)}
		})
}

func listChapterVerses() *Tool {
	return define("list_chapter_verses", "List Chapter Verses", FallbackVerses,
		`List all verses of a specific chapter in the Shahnameh.

Args:
    chapter_id: The id of the chapter to retrieve verses for

Persian explanation:
هر بخش از شاهنامه شامل چندین بیت است. این متد تمام بیت های یک بخش را بر می گرداند.`,
		func(a models.ListChapterVersesArgs) endpoint {
			return endpoint{path: "/chapters/" + url.PathEscape(a.ChapterID) + "/verses"}
		})
}

func listVersesBySubstrings() *Tool {
	return define("list_verses_by_substrings", "List Verses By Substrings", FallbackVerses,
		`List all verses containing all of the specified substrings.

Args:
    substrings: Filter verses by substrings (at least one required)

Persian explanation:
می توان بیت های شاهنامه را با زیر رشته هایی که در آنها وجود دارد فیلتر کرد.
این متد تمام بیت هایی که شامل تمام زیر رشته های داده شده باشد را بر می گرداند.`,
		func(a models.ListVersesBySubstringsArgs) endpoint {
			// One pair per element, in order, duplicates kept. An empty list
			// is sent as-is; the upstream decides what it means.
			return endpoint{
				path:  "/verses/search",
				query: url.Values{"substrings": a.Substrings},
			}
		})
}

func searchExplanations() *Tool {
	return define("search_explanations", "Search Explanations", FallbackExplanations,
		`Search for explanations of the Shahnameh's chapters as vector embeddings.
Each chapter might have multiple explanations and this method embeds the given query,
to search for relevant explanations.

Args:
    query: The query string to search for explanations

Persian explanation:
هر بخش از شاهنامه درای یک یا چند توضیح به زبان پارسی و با حالت فارسی مدرن دارد که به صورت امبدینگ در دیتابیس ذخیره شده است.
متد حاضر یک رشته را به امبدینگ تبدیل میکند و به دنبال نزدیک ترین توضیحات می گردد و آن را باز می گرداند.`,
		func(a models.SearchExplanationsArgs) endpoint {
			return endpoint{
				path:  "/explanations/search",
				query: url.Values{"query": {a.Query}},
			}
		})
}

func getVerseByID() *Tool {
	return define("get_verse_by_id", "Get Verse By ID", FallbackVerse,
		`Get a specific verse of Shahnameh by its ID.

Args:
    id: The id of the verse to retrieve

Persian explanation:
هر بیت از شاهنامه یک شناسه یکتا دارد که با آن می توان بیت مورد نظر را دریافت کرد`,
		func(a models.GetVerseByIDArgs) endpoint {
			return endpoint{path: "/verses/" + url.PathEscape(a.ID)}
		})
}
