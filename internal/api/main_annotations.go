// @title           joe-market API
// @version         1.0
// @description     Marketplace of owner-run stores. Every state-changing call is a transaction sent from the address the API token is bound to.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerToken
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and your API token. Example: "Bearer jm_xxx"
package api
