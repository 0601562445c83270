package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMangaDexServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/manga", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "naruto", r.URL.Query().Get("title"))
		fmt.Fprint(w, `{"data":[{"id":"m1","attributes":{"title":{"en":"Naruto"},"description":{"en":"ninjas"}}}]}`)
	})
	mux.HandleFunc("/manga/m1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"m1","attributes":{"title":{"ja-ro":"Naruto"}}}}`)
	})
	mux.HandleFunc("/manga/m1/feed", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		assert.Equal(t, "en", r.URL.Query().Get("translatedLanguage[]"))
		if offset == 0 {
			fmt.Fprint(w, `{"total":3,"data":[
				{"id":"c1","attributes":{"chapter":"1","volume":"1","translatedLanguage":"en"}},
				{"id":"c10","attributes":{"chapter":"10","volume":"2","translatedLanguage":"en"}}
			]}`)
			return
		}
		fmt.Fprint(w, `{"total":3,"data":[{"id":"c2","attributes":{"chapter":"2","volume":"1"},"relationships":[{"id":"m1","type":"manga"}]}]}`)
	})
	mux.HandleFunc("/chapter/c2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"c2","attributes":{"chapter":"2","title":"Two"},"relationships":[{"id":"m1","type":"manga"},{"id":"g","type":"scanlation_group"}]}}`)
	})
	mux.HandleFunc("/at-home/server/c2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"baseUrl":"https://uploads.example","chapter":{"hash":"h","data":["1.png","2.png"]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestMangaDex_Search(t *testing.T) {
	md := NewMangaDexAt(newMangaDexServer(t).URL)

	mangas, err := md.Search(context.Background(), "naruto")
	require.NoError(t, err)
	require.Len(t, mangas, 1)
	assert.Equal(t, "m1", mangas[0].ID)
	assert.Equal(t, "Naruto", mangas[0].Name)
	assert.Equal(t, "ninjas", mangas[0].Description)
}

func TestMangaDex_GetMangaFallsBackToAnyTitle(t *testing.T) {
	md := NewMangaDexAt(newMangaDexServer(t).URL)

	manga, err := md.GetManga(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Naruto", manga.Name)
	assert.Equal(t, "mangadex", manga.Source)
}

func TestMangaDex_GetChaptersPagesAndSorts(t *testing.T) {
	md := NewMangaDexAt(newMangaDexServer(t).URL)

	chapters, err := md.GetChapters(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, chapters, 3)

	ids := []string{chapters[0].ID, chapters[1].ID, chapters[2].ID}
	assert.Equal(t, []string{"c10", "c2", "c1"}, ids)
	for _, c := range chapters {
		assert.Equal(t, "m1", c.MangaID)
	}
}

func TestMangaDex_GetChapterWithPages(t *testing.T) {
	md := NewMangaDexAt(newMangaDexServer(t).URL)

	chapter, err := md.GetChapter(context.Background(), "c2")
	require.NoError(t, err)
	assert.Equal(t, "m1", chapter.MangaID)
	assert.Equal(t, "Two", chapter.Title)
	assert.Equal(t, []string{
		"https://uploads.example/data/h/1.png",
		"https://uploads.example/data/h/2.png",
	}, chapter.Images)
}

func TestMangaDex_ErrorStatus(t *testing.T) {
	md := NewMangaDexAt(newMangaDexServer(t).URL)

	_, err := md.GetChapter(context.Background(), "unknown")
	assert.Error(t, err)
}
