package portalstub

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
}

// listPosts: GET /posts/.
func (s *Server) listPosts(c echo.Context) error {
	return c.JSON(http.StatusOK, s.st.categories())
}

// getPost: GET /posts/:id/.
func (s *Server) getPost(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	for _, p := range s.st.categories() {
		if p.ID == id {
			return c.JSON(http.StatusOK, p)
		}
	}
	return notFound(c)
}

// listSubcategories: GET /posts/:id/subcategories/.  An unknown post yields
// an empty list.
func (s *Server) listSubcategories(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, s.st.subcategoriesOf(id))
}

// getSubcategory: GET /subcategories/:id/.
func (s *Server) getSubcategory(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	sub, ok := s.st.subcategory(id)
	if !ok {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, sub)
}

// listSeatPlans: GET /seatplans/?roll=.  Without roll every plan is listed.
func (s *Server) listSeatPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, s.st.seatPlansFor(c.QueryParam("roll")))
}

// getMedia: GET /media/*.  Serves uploaded photos and signatures.
func (s *Server) getMedia(c echo.Context) error {
	m, ok := s.st.getMedia("/media/" + c.Param("*"))
	if !ok {
		return notFound(c)
	}
	return c.Blob(http.StatusOK, m.ContentType, m.Data)
}
