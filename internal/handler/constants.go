package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"
	// RoutePostSlug is the public post route pattern.
	RoutePostSlug = "/post/{slug}"

	// RouteAuth is the login route.
	RouteAuth = "/auth"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteRSS is the RSS feed route.
	RouteRSS = "/rss.xml"

	// RoutePosts is the posts admin route.
	RoutePosts = "/posts"
	// RouteCategories is the categories admin route.
	RouteCategories = "/categories"
	// RouteUsers is the users admin route.
	RouteUsers = "/users"
	// RouteEvents is the events admin route.
	RouteEvents = "/events"
	// RouteProfile is the profile admin route.
	RouteProfile = "/profile"

	// RoutePostsEditID is the post editor route pattern.
	RoutePostsEditID = RoutePosts + "/edit" + RouteParamID
	// RouteCategoriesID is the categories ID route pattern.
	RouteCategoriesID = RouteCategories + RouteParamID
	// RouteUsersID is the users ID route pattern.
	RouteUsersID = RouteUsers + RouteParamID
)

// Redirect targets shared by the admin handlers.
const (
	redirectAdmin              = "/admin"
	redirectAdminPosts         = redirectAdmin + RoutePosts
	redirectAdminPostsNew      = redirectAdminPosts + RouteSuffixNew
	redirectAdminCategories    = redirectAdmin + RouteCategories
	redirectAdminCategoriesNew = redirectAdminCategories + RouteSuffixNew
	redirectAdminUsers         = redirectAdmin + RouteUsers
	redirectAdminUsersNew      = redirectAdminUsers + RouteSuffixNew
	redirectAdminEvents        = redirectAdmin + RouteEvents
	redirectAdminProfile       = redirectAdmin + RouteProfile
	redirectLogin              = RouteAuth
	redirectPost               = "/post/"

	redirectAdminPostsEditID  = redirectAdminPosts + "/edit/%d"
	redirectAdminCategoriesID = redirectAdminCategories + "/%d"
	redirectAdminUsersID      = redirectAdminUsers + "/%d"
)
