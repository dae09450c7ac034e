package services

import "anistream/models"

const (
	posterA = "https://images.unsplash.com/photo-1488590528505-98d2b5aba04b?auto=format&fit=crop&w=500&q=80"
	posterB = "https://images.unsplash.com/photo-1649972904349-6e44c42644a7?auto=format&fit=crop&w=500&q=80"
	posterC = "https://images.unsplash.com/photo-1506744038136-46273834b3fb?auto=format&fit=crop&w=500&q=80"
	posterD = "https://images.unsplash.com/photo-1526374965328-7f61d4dc18c5?auto=format&fit=crop&w=500&q=80"
)

// SeedMovies returns the bundled catalog used when nothing has been persisted yet.
// Each call returns a fresh slice.
func SeedMovies() []models.Movie {
	return []models.Movie{
		{ID: "1", Title: "Demon Slayer: Mugen Train", Poster: posterA, Rating: 8.5, ReleaseDate: "2020",
			Status: models.StatusRegular, Categories: []string{"Action", "Adventure", "Fantasy"}},
		{ID: "2", Title: "My Hero Academia: Heroes Rising", Poster: posterB, Rating: 7.9, ReleaseDate: "2019",
			Status: models.StatusRegular, Categories: []string{"Action", "Adventure"}},
		{ID: "3", Title: "Weathering With You", Poster: posterC, Rating: 8.1, ReleaseDate: "2019",
			Status: models.StatusRegular, Categories: []string{"Drama", "Fantasy", "Romance"}},
		{ID: "4", Title: "A Silent Voice", Poster: posterD, Rating: 8.2, ReleaseDate: "2016",
			Status: models.StatusRegular, Categories: []string{"Drama", "Romance"}},
		{ID: "5", Title: "Your Name", Poster: posterA, Rating: 8.4, ReleaseDate: "2016",
			Status: models.StatusRegular, Categories: []string{"Drama", "Fantasy", "Romance"}},
		{ID: "6", Title: "Spirited Away", Poster: posterB, Rating: 8.6, ReleaseDate: "2001",
			Status: models.StatusRegular, Categories: []string{"Adventure", "Fantasy"}},
		{ID: "7", Title: "Jujutsu Kaisen 0", Poster: posterD, Rating: 7.8, ReleaseDate: "2021",
			Status: models.StatusLatest, Categories: []string{"Action", "Fantasy", "Supernatural"}},
		{ID: "8", Title: "Belle", Poster: posterC, Rating: 7.5, ReleaseDate: "2021",
			Status: models.StatusLatest, Categories: []string{"Adventure", "Sci-Fi"}},
		{ID: "9", Title: "The Deer King", Poster: posterA, Rating: 7.0, ReleaseDate: "2022",
			Status: models.StatusLatest, Categories: []string{"Fantasy", "Adventure"}},
		{ID: "10", Title: "Bubble", Poster: posterB, Rating: 6.8, ReleaseDate: "2022",
			Status: models.StatusLatest, Categories: []string{"Sci-Fi", "Romance"}},
		{ID: "11", Title: "Pompo: The Cinéphile", Poster: posterC, Rating: 7.3, ReleaseDate: "2021",
			Status: models.StatusLatest, Categories: []string{"Comedy", "Drama"}},
		{ID: "12", Title: "Suzume", Poster: posterA, Rating: 0, ReleaseDate: "2023",
			Status: models.StatusComingSoon, ReleaseCountdown: "7 days", Categories: []string{"Adventure", "Fantasy"}},
		{ID: "13", Title: "Chainsaw Man", Poster: posterB, Rating: 0, ReleaseDate: "2023",
			Status: models.StatusComingSoon, ReleaseCountdown: "14 days", Categories: []string{"Action", "Horror", "Supernatural"}},
		{ID: "14", Title: "One Piece: Red", Poster: posterD, Rating: 0, ReleaseDate: "2023",
			Status: models.StatusComingSoon, ReleaseCountdown: "30 days", Categories: []string{"Action", "Adventure", "Fantasy"}},
		{ID: "15", Title: "Dragon Ball Super: Super Hero", Poster: posterC, Rating: 0, ReleaseDate: "2023",
			Status: models.StatusComingSoon, ReleaseCountdown: "45 days", Categories: []string{"Action", "Adventure", "Sci-Fi"}},
	}
}
