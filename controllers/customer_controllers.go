package controllers

import (
	"net/http"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
)

type CustomerController struct {
	Customers *services.CustomerService
}

func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{Customers: customers}
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	customer, err := cc.Customers.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "fetch customer", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer retrieved successfully", customer)
}

// DeleteCustomer -> ditolak (409) jika masih ada reservasi atau refill request
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := cc.Customers.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, "delete customer", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer deleted successfully", gin.H{"id": id})
}
